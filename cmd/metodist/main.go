package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/takelab/metodist/internal/config"
	"github.com/takelab/metodist/internal/corpus"
	"github.com/takelab/metodist/internal/files"
	"github.com/takelab/metodist/internal/gateway"
	"github.com/takelab/metodist/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "metodist",
	Short: "metodist - methodology assistant bot for library staff",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot (telegram polling + scheduled corpus reload)",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directories",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show metodist status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(serveCmd, onboardCmd, statusCmd)
}

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, dir := range []string{cfg.Data.CorpusDir, cfg.Data.PDFDir, cfg.Data.DocumentsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
		fmt.Printf("  Ready: %s\n", dir)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Put knowledge base markdown files into %s\n", cfg.Data.CorpusDir)
	fmt.Println("  2. Set METODIST_BOT_TOKEN, YANDEX_API_KEY, YANDEX_FOLDER_ID, METODIST_ADMIN_ID")
	fmt.Println("  3. Run 'metodist serve'")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Model: %s\n", cfg.Yandex.Model)
	fmt.Printf("Vision model: %s\n", cfg.Yandex.VisionModel)
	fmt.Printf("Bot token: %s\n", maskSecret(cfg.Telegram.Token))
	fmt.Printf("Yandex API key: %s\n", maskSecret(cfg.Yandex.APIKey))
	fmt.Printf("Admin chat: %d\n", cfg.Telegram.AdminID)

	store := corpus.NewStore(cfg.Data.CorpusDir)
	if err := store.Load(); err != nil {
		fmt.Printf("Corpus: error (%v)\n", err)
	} else {
		fmt.Printf("Corpus: %d documents in %s\n", store.Count(), cfg.Data.CorpusDir)
	}

	if idx, err := files.Load(cfg.Data.FileIndexPath, cfg.Data.DocumentsDir); err != nil {
		fmt.Printf("File index: error (%v)\n", err)
	} else {
		fmt.Printf("File index: %d entries\n", idx.Len())
	}

	if users, err := registry.NewStore(cfg.Data.DBPath); err != nil {
		fmt.Printf("Registry: error (%v)\n", err)
	} else {
		defer users.Close()
		if ids, err := users.AllUserIDs(); err == nil {
			fmt.Printf("Registered users: %d\n", len(ids))
		}
	}

	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "not set"
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "set"
}
