package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-annotate/internal/server"
)

// Options defines all CLI flags and env vars for the annotation server.
// Flags: --host, --port, --web-dir, --geocode-url, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_WEB_DIR, SERVICE_GEOCODE_URL, SERVICE_LOG_LEVEL
type Options struct {
	Host       string `doc:"Host to bind to" default:"0.0.0.0"`
	Port       int    `doc:"Port to listen on" short:"p" default:"8087"`
	WebDir     string `doc:"Path to web/ directory" default:"web"`
	GeocodeURL string `doc:"Nominatim-compatible search endpoint (empty = public OSM instance)" default:""`
	LogLevel   string `doc:"Log level: trace, debug, info, warn, error" default:"info"`
}

func newServer(opts *Options) *server.Server {
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		WebDir:     opts.WebDir,
		GeocodeURL: opts.GeocodeURL,
	})
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		setupLogging(opts.LogLevel)
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().Str("url", baseURL).Msg("plat-annotate server starting")
			log.Info().Str("page", baseURL+"/annotator").Msg("Annotation page")
			log.Info().Str("docs", baseURL+"/docs").Str("openapi", baseURL+"/openapi.json").Msg("API docs")

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatal().Err(err).Msg("Server error")
			}
		})
	})

	cli.Root().Use = "annotate"
	cli.Root().Short = "Map annotation server for drawing and managing features"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Run()
}
