package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-c2rcc/internal/config"
	"go-c2rcc/internal/container"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/server"
	"go-c2rcc/internal/service"
	"go-c2rcc/internal/strategy"
	"go-c2rcc/pkg/models"
)

type rootOptions struct {
	configPath string
	logLevel   string
	netDir     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "c2rcc",
		Short: "Case-2 Regional CoastColour atmospheric correction and IOP retrieval",
		Long: `c2rcc corrects top-of-atmosphere observations of ocean colour sensors
with neural networks and retrieves water reflectance, inherent optical
properties and concentrations per pixel.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// keep stdout free for command output
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetFormat("text")
			level := opts.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			logger.SetLevel(level)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file (default $C2RCC_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")
	root.PersistentFlags().StringVar(&opts.netDir, "net-dir", "", "local directory holding the network definitions")

	root.AddCommand(
		newProcessCmd(opts),
		newNetsCmd(opts),
		newSensorsCmd(),
		newFlagsCmd(),
		newServeCmd(opts),
	)
	return root
}

// loadConfig reads the file named by --config or $C2RCC_CONFIG and applies
// the command line overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("C2RCC_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.netDir != "" {
		cfg.NetSource = config.NetSourceFile
		cfg.NetDir = o.netDir
	}
	return cfg, nil
}

func (o *rootOptions) newContainer() (*container.Container, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return container.NewContainer(cfg)
}

func newProcessCmd(root *rootOptions) *cobra.Command {
	var sensorName, netSet, preset, input, output string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a JSON file of pixels",
		Long: `Reads a process request ({"sensor": ..., "pixels": [...]}) or a bare
array of pixels and writes the per-pixel results as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.newContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			req, err := readRequest(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if sensorName != "" {
				req.Sensor = sensorName
			}
			if req.Sensor == "" {
				req.Sensor = c.Config().Sensor
			}
			if netSet != "" {
				req.NetSet = netSet
			}
			if preset != "" {
				req.Preset = preset
			}
			if req.Config == nil {
				defaults := c.Config().Algorithm
				req.Config = &defaults
			}

			resp, err := c.Service().Process(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(output, cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&sensorName, "sensor", "", "sensor name (overrides the request)")
	cmd.Flags().StringVar(&netSet, "net-set", "", "network set name, or \"alternative\"")
	cmd.Flags().StringVar(&preset, "preset", "", "output preset: "+strings.Join(strategy.Names(), ", "))
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input JSON file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output JSON file, - for stdout")
	return cmd
}

func readRequest(path string, stdin io.Reader) (models.ProcessRequest, error) {
	var req models.ProcessRequest

	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("read input: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &req.Pixels)
	} else {
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return req, fmt.Errorf("decode input: %w", err)
	}
	return req, nil
}

func writeJSON(path string, stdout io.Writer, v interface{}) error {
	w := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newNetsCmd(root *rootOptions) *cobra.Command {
	nets := &cobra.Command{
		Use:   "nets",
		Short: "Inspect network sets",
	}

	var sensorName, netSet string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Load a network set and check it against the sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.newContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			if sensorName == "" {
				sensorName = c.Config().Sensor
			}
			info, err := c.Service().DescribeNetSet(cmd.Context(), sensorName, netSet)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "%s / %s\n", info.Sensor, info.Name)
			fmt.Fprintln(w, "ROLE\tTOPOLOGY\tIN\tOUT\tSOURCE")
			for _, r := range info.Roles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", r.Role, r.Topology, r.Inputs, r.Outputs, r.Source)
			}
			return w.Flush()
		},
	}
	verify.Flags().StringVar(&sensorName, "sensor", "", "sensor name (default from configuration)")
	verify.Flags().StringVar(&netSet, "net-set", "", "network set name, or \"alternative\"")

	nets.AddCommand(verify)
	return nets
}

func newSensorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "List supported sensors and their network sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SENSOR\tBANDS\tINPUT\tNET SETS\tDESCRIPTION")
			for _, s := range service.SensorCatalog() {
				input := "radiance"
				if s.InputIsReflectance {
					input = "reflectance"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", s.Name, s.InputBands, input, strings.Join(s.NetSets, ","), s.Description)
			}
			return w.Flush()
		},
	}
}

func newFlagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "List the bits of the per-pixel quality word",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BIT\tMASK\tNAME")
			for _, f := range service.FlagCatalog() {
				fmt.Fprintf(w, "%d\t0x%08x\t%s\n", f.Bit, f.Mask, f.Name)
			}
			return w.Flush()
		},
	}
}

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.newContainer()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, c)
		},
	}
}
