package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blendguard/blendscan/internal/config"
	"github.com/blendguard/blendscan/internal/extractor"
	"github.com/blendguard/blendscan/internal/llm"
	"github.com/blendguard/blendscan/internal/pipeline"
	"github.com/blendguard/blendscan/internal/progress"
)

var (
	filePath      string
	blenderExec   string
	lmstudioAPI   string
	lmstudioModel string
	ollamaAPI     string
	ollamaModel   string
	workDir       string
	listenAddr    string
	configFile    string
	noOpen        bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "blendscan",
	Short: "Extract and security-scan scripts embedded in .blend files",
	Long: `blendscan pulls every embedded Python script out of a .blend file using a
headless Blender instance, submits each one to an LLM for a security
assessment and renders the results as a browsable HTML report.

Backends:
- LM Studio (or any OpenAI-compatible endpoint): pass --lmstudio-api.
- Ollama (local model, pulled and cached automatically): the default.`,
	Example: `  # scan with a local model served by Ollama
  blendscan --filepath ./scene.blend

  # scan against LM Studio
  blendscan --filepath ./scene.blend --lmstudio-api http://localhost:1234/v1 --lmstudio-model qwen3-4b

  # stream progress to a GUI over websocket
  blendscan --filepath ./scene.blend --listen 127.0.0.1:7474`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&filePath, "filepath", "", "path to the .blend file to analyze (required)")
	rootCmd.Flags().StringVar(&blenderExec, "blender-exec", "", "path to the Blender executable (default: blender in PATH)")
	rootCmd.Flags().StringVar(&lmstudioAPI, "lmstudio-api", "", "LM Studio API base URL (e.g. http://localhost:1234/v1); selects the remote backend")
	rootCmd.Flags().StringVar(&lmstudioModel, "lmstudio-model", "", "model name as loaded in LM Studio")
	rootCmd.Flags().StringVar(&ollamaAPI, "ollama-api", "", "Ollama API base URL (default http://localhost:11434)")
	rootCmd.Flags().StringVar(&ollamaModel, "ollama-model", "", "Ollama model tag (default qwen3:4b)")
	rootCmd.Flags().StringVar(&workDir, "workdir", "", "directory for extracted scripts and the report (default .)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "serve progress lines over websocket on this address")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a blendscan.yaml config file")
	rootCmd.Flags().BoolVar(&noOpen, "no-open", false, "do not open the report in the default viewer")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("filepath")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func run(ctx context.Context) error {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := pipeline.ValidateInput(filePath); err != nil {
		return err
	}

	blender, err := extractor.ResolveBlender(cfg.BlenderExec)
	if err != nil {
		return err
	}
	cfg.BlenderExec = blender

	provider, err := buildProvider(cfg.Backend)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	slog.Debug("starting run", "run_id", runID, "backend", provider.GetName(), "model", provider.GetModel())

	rep := progress.NewReporter(runID, 256)

	var hub *progress.Hub
	var srv *http.Server
	if cfg.Listen != "" {
		hub = progress.NewHub()
		go hub.Run()

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		srv = &http.Server{Addr: cfg.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("progress server stopped", "error", err)
			}
		}()
		fmt.Printf("progress available on ws://%s/ws\n", cfg.Listen)
	}

	var g errgroup.Group
	g.Go(func() error {
		progress.Tee(os.Stdout, hub, rep.Lines())
		return nil
	})

	reportPath, runErr := pipeline.New(cfg, provider, rep).Run(ctx, filePath)
	rep.Close()
	_ = g.Wait()

	if hub != nil {
		hub.Close()
	}
	if srv != nil {
		_ = srv.Shutdown(context.Background())
	}

	if runErr != nil {
		return runErr
	}
	fmt.Printf("report: %s\n", reportPath)
	return nil
}

// loadConfig layers defaults, env, the optional config file and flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := configFile
	if path == "" {
		if _, err := os.Stat("blendscan.yaml"); err == nil {
			path = "blendscan.yaml"
		}
	}
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	// flags win over everything
	applyFlag(&cfg.BlenderExec, blenderExec)
	applyFlag(&cfg.WorkDir, workDir)
	applyFlag(&cfg.Listen, listenAddr)
	applyFlag(&cfg.Backend.LMStudioAPI, lmstudioAPI)
	applyFlag(&cfg.Backend.LMStudioModel, lmstudioModel)
	applyFlag(&cfg.Backend.OllamaAPI, ollamaAPI)
	applyFlag(&cfg.Backend.OllamaModel, ollamaModel)
	if noOpen {
		cfg.AutoOpen = false
	}

	return cfg, nil
}

func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func buildProvider(b config.Backend) (llm.Provider, error) {
	if b.UseLMStudio() {
		return llm.NewProvider(llm.BackendConfig{
			Type:    llm.BackendLMStudio,
			BaseURL: b.LMStudioAPI,
			Model:   b.LMStudioModel,
		})
	}
	return llm.NewProvider(llm.BackendConfig{
		Type:    llm.BackendOllama,
		BaseURL: b.OllamaAPI,
		Model:   b.OllamaModel,
	})
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
