// Command mbxperm es la CLI de la herramienta: levanta el servidor, revisa
// CSVs y genera scripts sin pasar por el navegador.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Poutchouli/SharedMailbox-editor/internal/config"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/server"
	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var (
		cfgPath = envOr("CONFIG_PATH", "config.yaml")
		out     = envOr("MBXPERM_OUT", "text")
	)

	root := &cobra.Command{
		Use:           "mbxperm",
		Short:         "Permisos de buzones compartidos de Exchange Online",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Config YAML (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "mbxperm"})
		return cfg, nil
	}

	// serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la interfaz web",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Start(ctx, cfg)
		},
	}

	// ingest
	var sep string
	ingestCmd := &cobra.Command{
		Use:   "ingest <archivo.csv>",
		Short: "Normaliza un CSV de permisos y muestra las filas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := csvOptions(sep)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := ingest.Parse(raw, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printIngest(cmd.OutOrStdout(), out, res)
		},
	}
	ingestCmd.Flags().StringVar(&sep, "separator", ";", "Separador de columnas (un carácter)")

	// generate
	var (
		opsPath   string
		action    string
		outPath   string
		username  string
		password  string
		domain    string
		auth      bool
		logPrefix string
	)
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera el script PowerShell desde un CSV o un JSON de operaciones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opsPath == "" {
				return fmt.Errorf("--ops es requerido")
			}
			ops, err := readOperations(opsPath, script.Action(action), sep)
			if err != nil {
				return err
			}

			var creds *script.Credentials
			if auth || cfg.Script.RequireAuth {
				d := domain
				if !cmd.Flags().Changed("domain") {
					d = cfg.Script.DefaultDomain
				}
				creds = &script.Credentials{
					Username: firstNonEmpty(username, os.Getenv("MBXPERM_USERNAME")),
					Password: firstNonEmpty(password, os.Getenv("MBXPERM_PASSWORD")),
					Domain:   d,
				}
			}

			prefix := cfg.Script.LogPrefix
			if logPrefix != "" {
				prefix = logPrefix
			}
			sc, err := script.NewCompiler(script.Config{LogPrefix: prefix}).Compile(ops, creds)
			if err != nil {
				return err
			}
			return writeScript(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, outPath, sc)
		},
	}
	generateCmd.Flags().StringVar(&opsPath, "ops", "", "CSV (.csv) o JSON (.json) con las operaciones")
	generateCmd.Flags().StringVar(&action, "action", string(script.ActionAdd), "Acción para las filas de un CSV: add|remove")
	generateCmd.Flags().StringVar(&sep, "separator", ";", "Separador del CSV")
	generateCmd.Flags().StringVarP(&outPath, "output", "o", "", "Archivo .ps1 de salida (default stdout)")
	generateCmd.Flags().BoolVar(&auth, "auth", false, "Incluir bloque de conexión con credenciales")
	generateCmd.Flags().StringVar(&username, "username", "", "Usuario (env MBXPERM_USERNAME)")
	generateCmd.Flags().StringVar(&password, "password", "", "Contraseña (env MBXPERM_PASSWORD)")
	generateCmd.Flags().StringVar(&domain, "domain", "", "Dominio (default el del config)")
	generateCmd.Flags().StringVar(&logPrefix, "log-prefix", "", "Prefijo del log que escribe el script")

	// readyz contra un servidor levantado
	var baseURL string
	readyzCmd := &cobra.Command{
		Use:   "readyz",
		Short: "Consulta /readyz de un servidor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkReady(cmd.Context(), cmd.OutOrStdout(), out, baseURL)
		},
	}
	readyzCmd.Flags().StringVar(&baseURL, "url", envOr("MBXPERM_URL", "http://localhost:5000"), "URL base (env MBXPERM_URL)")

	root.AddCommand(serveCmd, ingestCmd, generateCmd, readyzCmd)
	return root
}

func checkReady(ctx context.Context, w io.Writer, out, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/readyz", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if out == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(w, string(p))
		}
	} else if resp.StatusCode == http.StatusOK {
		fmt.Fprintln(w, "ok")
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("readyz fallo: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
