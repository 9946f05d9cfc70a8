// complyctl is the operator CLI: schema migration, catalog seeding and
// report integrity checks. The API server never mutates the catalog; this
// tool owns it.
package main

import (
	"fmt"
	"log"
	"os"

	"complylaw-api/config"
	"complylaw-api/models"
	"complylaw-api/services"
	"complylaw-api/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	root := &cobra.Command{
		Use:           "complyctl",
		Short:         "Operator tooling for the ComplyLaw audit API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using environment variables")
			}
			config.InitDB()
		},
	}

	root.AddCommand(migrateCmd(), seedCmd(), reportCmd(), verifyReportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := config.DB.AutoMigrate(
				&models.FirmProfile{},
				&models.Role{},
				&models.User{},
				&models.ScanResult{},
				&models.Alert{},
				&models.ChecklistTemplate{},
				&models.ChecklistSubmission{},
				&models.ChecklistResponse{},
				&models.EvidenceFile{},
				&models.ReportVerification{},
			)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migration complete")
			return nil
		},
	}
}

// catalogFile is the YAML shape complyctl seed consumes.
type catalogFile struct {
	Templates []catalogEntry `yaml:"templates"`
}

type catalogEntry struct {
	Standard         string  `yaml:"standard"`
	Code             string  `yaml:"code"`
	Reference        string  `yaml:"reference"`
	Title            string  `yaml:"title"`
	Description      string  `yaml:"description"`
	RiskImpact       string  `yaml:"risk_impact"`
	Weight           float64 `yaml:"weight"`
	RequiresEvidence bool    `yaml:"requires_evidence"`
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed or refresh the compliance control catalog",
		Long: "Upserts checklist templates keyed by (standard, code). Without --file the " +
			"built-in GDPR and ISO 27001 starter controls are loaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := defaultCatalog()
			if file != "" {
				loaded, err := loadCatalogFile(file)
				if err != nil {
					return err
				}
				templates = loaded
			}

			created, updated, err := services.SeedTemplates(templates)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog seeded: %d created, %d updated\n", created, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file (defaults to built-in controls)")
	return cmd
}

func loadCatalogFile(path string) ([]models.ChecklistTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(parsed.Templates) == 0 {
		return nil, fmt.Errorf("%s contains no templates", path)
	}

	templates := make([]models.ChecklistTemplate, 0, len(parsed.Templates))
	for _, entry := range parsed.Templates {
		weight := entry.Weight
		if weight == 0 {
			weight = 1.0
		}
		templates = append(templates, models.ChecklistTemplate{
			Standard:         entry.Standard,
			Code:             entry.Code,
			ReferenceArticle: entry.Reference,
			Title:            entry.Title,
			Description:      entry.Description,
			RiskImpact:       entry.RiskImpact,
			Weight:           weight,
			RequiresEvidence: entry.RequiresEvidence,
			Active:           true,
		})
	}
	return templates, nil
}

// defaultCatalog is the starter control set loaded when no YAML file is given.
func defaultCatalog() []models.ChecklistTemplate {
	return []models.ChecklistTemplate{
		{
			Standard:         "GDPR",
			Code:             "GDPR-SEC-01",
			ReferenceArticle: "Article 32",
			Title:            "Encryption of Personal Data",
			Description:      "Are technical measures (AES-256) used to encrypt data at rest?",
			RiskImpact:       models.RiskImpactHigh,
			Weight:           3.0,
			RequiresEvidence: true,
			Active:           true,
		},
		{
			Standard:         "GDPR",
			Code:             "GDPR-GOV-01",
			ReferenceArticle: "Article 37",
			Title:            "Designation of DPO",
			Description:      "Has a Data Protection Officer been formally appointed?",
			RiskImpact:       models.RiskImpactMedium,
			Weight:           2.0,
			Active:           true,
		},
		{
			Standard:         "ISO27001",
			Code:             "A.5.1.1",
			ReferenceArticle: "Annex A.5.1.1",
			Title:            "Information Security Policies",
			Description:      "Is there a suite of policies approved by management?",
			RiskImpact:       models.RiskImpactHigh,
			Weight:           3.0,
			Active:           true,
		},
	}
}

func reportCmd() *cobra.Command {
	var firmID int
	var out string

	cmd := &cobra.Command{
		Use:   "report <submission-id>",
		Short: "Export a submission's report payload as JSON",
		Long: "Builds the renderer payload (submission, responses, score, risk breakdown) " +
			"and prints its sha256. When no rendered PDF exists this JSON form is the " +
			"artifact verify-report checks.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewReportService(config.DB, services.NewChecklistService(config.DB))
			payload, err := svc.BuildPayload(args[0], firmID)
			if err != nil {
				return err
			}
			data, err := payload.PayloadBytes()
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			} else {
				fmt.Println(string(data))
			}
			fmt.Printf("sha256: %s\n", utils.SHA256Bytes(data))
			return nil
		},
	}

	cmd.Flags().IntVar(&firmID, "firm", 0, "Firm id owning the submission")
	cmd.MarkFlagRequired("firm")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the payload JSON to a file instead of stdout")
	return cmd
}

func verifyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-report <file>",
		Short: "Check a report file against the stored integrity hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.SHA256File(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("sha256: %s\n", hash)

			svc := services.NewReportService(config.DB, services.NewChecklistService(config.DB))
			verification, err := svc.Verify(hash)
			if err != nil {
				return fmt.Errorf("report is NOT registered: %w", err)
			}

			fmt.Printf("Verified: submission %s, generated at %s\n",
				verification.SubmissionID, verification.GeneratedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
