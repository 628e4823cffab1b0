package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/awalther/amtspost/internal/config"
	"github.com/awalther/amtspost/internal/models"
	"github.com/awalther/amtspost/internal/services"
)

func main() {
	// Matches the python-dotenv habit: secrets live in .env next to the tool.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		configPath      string
		languages       string
		outputDir       string
		credentialsFile string
		tokenFile       string
		dryRun          bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&languages, "lang", "", "Comma-separated tesseract language codes (e.g. deu,eng)")
	flag.StringVar(&outputDir, "output-dir", "", "Directory for the summary PDF and analysis JSON")
	flag.StringVar(&credentialsFile, "credentials", "", "Path to OAuth client secrets JSON")
	flag.StringVar(&tokenFile, "token", "", "Path to cached OAuth token")
	flag.BoolVar(&dryRun, "dry-run", false, "Stop after the summary PDF; no Drive/Calendar/ledger writes")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: amtspost [flags] <scan.pdf>")
	}
	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("cannot read %s: %w", pdfPath, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	if languages != "" {
		cfg.OCR.Languages = strings.Split(languages, ",")
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if credentialsFile != "" {
		cfg.Google.CredentialsFile = credentialsFile
	}
	if tokenFile != "" {
		cfg.Google.TokenFile = tokenFile
	}

	if errs := cfg.Validate(!dryRun); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	ctx := context.Background()

	color.Blue("\nProcessing %s\n", pdfPath)
	processor, err := services.NewProcessor(ctx, cfg, dryRun)
	if err != nil {
		return err
	}

	var spinner *progressbar.ProgressBar
	processor.OnStep = func(step string) {
		if spinner != nil {
			spinner.Finish()
			fmt.Println()
		}
		spinner = getSpinner(step + "...")
	}

	result, err := processor.Process(ctx, &models.ProcessRequest{
		PDFPath:   pdfPath,
		Languages: cfg.OCR.Languages,
		DryRun:    dryRun,
	})
	if spinner != nil {
		spinner.Finish()
		fmt.Println()
	}
	if err != nil {
		color.Red("✗ %v", err)
		return err
	}

	if result.Skipped {
		color.Yellow("Already processed (ledger record %s), nothing to do.", result.DocumentID)
		return nil
	}

	color.Green("✓ Processed %d page(s)", result.PageCount)
	color.Green("✓ Summary PDF: %s", result.OutputPDF)
	color.Green("✓ Analysis JSON: %s", result.AnalysisJSON)
	if result.Analysis != nil {
		fmt.Printf("\n  %s — %s, addressed to %s\n", result.Analysis.TitleInEnglish, result.Analysis.Sender, result.Analysis.AddressedTo)
		fmt.Printf("  %s\n", result.Analysis.SummaryInEnglish)
	}
	if dryRun {
		color.Yellow("\nDry run: skipped Drive filing, calendar events and the ledger.")
		return nil
	}

	color.Green("✓ Filed in Drive: %s", result.DriveLink)
	if len(result.EventIDs) > 0 {
		color.Green("✓ Created %d calendar event(s)", len(result.EventIDs))
	}
	if len(result.TaskIDs) > 0 {
		color.Green("✓ Created %d task(s)", len(result.TaskIDs))
	}
	return nil
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
