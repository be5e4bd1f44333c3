package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbody/internal/compute"
	"github.com/san-kum/nbody/internal/config"
	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/frame"
	"github.com/san-kum/nbody/internal/frameio"
	"github.com/san-kum/nbody/internal/logging"
	"github.com/san-kum/nbody/internal/memory"
	"github.com/san-kum/nbody/internal/storage"
	"github.com/san-kum/nbody/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	numBodies  int
	startFrame int
	useGPU     bool
	backups    bool
	logLevel   string
	short      bool
	bins       int
)

// main registers the commands and runs the root command. Any failure is
// reported as one diagnostic line before the process exits non-zero.
func main() {
	rootCmd := &cobra.Command{
		Use:   "nbody",
		Short: "n-body frame store and accelerator mirror",
		Long: `nbody loads, inspects, mirrors and stores N-body simulation frames.

A frame file holds one body per line: mass x y z vx vy vz.
The body count is never read from the file; pass it with -N.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.IntVarP(&numBodies, "bodies", "N", config.DefaultBodies, "number of bodies")
	pf.IntVarP(&startFrame, "start", "s", 0, "id of the first frame")
	pf.BoolVarP(&useGPU, "gpu", "G", false, "mirror frames in accelerator memory")
	pf.BoolVarP(&backups, "backups", "b", false, "write backup files")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")

	printCmd := &cobra.Command{
		Use:   "print [file]",
		Short: "print positions and velocities of a frame",
		Args:  cobra.ExactArgs(1),
		RunE:  printFrame,
	}

	convertCmd := &cobra.Command{
		Use:   "convert [in] [out]",
		Short: "rewrite a frame in fixed-point format",
		Args:  cobra.ExactArgs(2),
		RunE:  convertFrame,
	}
	convertCmd.Flags().BoolVar(&short, "short", false, "write positions only")

	mirrorCmd := &cobra.Command{
		Use:   "mirror [file]",
		Short: "copy a frame to the accelerator and back, verifying every byte",
		Args:  cobra.ExactArgs(1),
		RunE:  mirrorFrame,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "summarize a frame",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectFrame,
	}
	inspectCmd.Flags().IntVar(&bins, "bins", 20, "radial profile bins")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "store a frame in a new run",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotFrame,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "write the effective config to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	})

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s N=%d frames=%d integrator=%s gpu=%v\n", name, p.Bodies, p.Frames, p.Integrator, p.GPU)
			}
		},
	}

	rootCmd.AddCommand(printCmd, convertCmd, mirrorCmd, inspectCmd, snapshotCmd, runsCmd, configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(dynamo.ExitCode(err))
	}
}

// loadConfig merges preset, config file and flags, in that order, and
// starts the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("bodies") || (preset == "" && configFile == "") {
		cfg.Bodies = numBodies
	}
	if flags.Changed("start") {
		cfg.StartFrame = startFrame
	}
	if flags.Changed("gpu") {
		cfg.GPU = useGPU
	}
	if flags.Changed("backups") {
		cfg.Backups = backups
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	logging.Init("nbody", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readParticles(cmd *cobra.Command, path string) (*config.Config, *memory.Host, *frame.Particles, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	alloc := memory.NewHost(cfg.HostLimit)
	p, err := frameio.Read(path, cfg.Bodies, alloc)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Debug().Str("path", path).Int("bodies", p.Len()).Msg("frame loaded")
	return cfg, alloc, p, nil
}

// promote builds the frame the config asks for. On failure p is released.
func promote(cfg *config.Config, p *frame.Particles) (frame.Frame, error) {
	if !cfg.GPU {
		fr, err := frame.NewHostFrame(p)
		if err != nil {
			return nil, errors.Join(err, p.Release())
		}
		return fr, nil
	}
	rt := compute.AutoSelect(cfg.DeviceLimit)
	fr, err := frame.NewDeviceFrame(p, rt)
	if err != nil {
		return nil, errors.Join(err, p.Release())
	}
	if err := fr.Upload(); err != nil {
		return nil, errors.Join(err, fr.Free())
	}
	return fr, nil
}

func printFrame(cmd *cobra.Command, args []string) (err error) {
	_, _, p, err := readParticles(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, p.Release())
	}()

	return frameio.Print(p)
}

func convertFrame(cmd *cobra.Command, args []string) (err error) {
	_, _, p, err := readParticles(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, p.Release())
	}()

	if short {
		return frameio.WriteShort(args[1], p)
	}
	return frameio.WriteFull(args[1], p)
}

func mirrorFrame(cmd *cobra.Command, args []string) error {
	cfg, alloc, p, err := readParticles(cmd, args[0])
	if err != nil {
		return err
	}

	n := p.Len()
	want := append([]dynamo.Vec4(nil), p.Bodies()...)
	wantVel := append([]dynamo.Vec4(nil), p.Velocities()...)

	rt := compute.AutoSelect(cfg.DeviceLimit)
	fr, err := frame.NewDeviceFrame(p, rt)
	if err != nil {
		return errors.Join(err, p.Release())
	}

	if err := fr.Upload(); err != nil {
		return errors.Join(err, fr.Free())
	}
	for i := range fr.Bodies() {
		fr.Bodies()[i] = dynamo.Vec4{}
		fr.Velocities()[i] = dynamo.Vec4{}
	}
	if err := fr.Download(); err != nil {
		return errors.Join(err, fr.Free())
	}

	mismatch := !bytes.Equal(dynamo.Vec4Bytes(want), dynamo.Vec4Bytes(fr.Bodies())) ||
		!bytes.Equal(dynamo.Vec4Bytes(wantVel), dynamo.Vec4Bytes(fr.Velocities()))

	if err := frame.Free(fr); err != nil {
		return err
	}
	if mismatch {
		return dynamo.Fatalf(dynamo.KindAccelerator, args[0], "device round trip changed the frame")
	}
	if alloc.Live() != 0 {
		return fmt.Errorf("leaked host buffers: %v", alloc.LiveLabels())
	}

	moved := 4 * n * dynamo.Vec4Size
	fmt.Printf("mirrored %d bodies through %s (%d bytes moved)\n", n, rt.Name(), moved)
	return nil
}

func inspectFrame(cmd *cobra.Command, args []string) (err error) {
	cfg, alloc, p, err := readParticles(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, p.Release())
	}()

	sum := viz.Summarize(p)
	fmt.Println(viz.Render(args[0], sum, viz.RadialProfile(p, sum, bins)))
	if cfg.HostLimit > 0 {
		fmt.Printf("host memory %s %.1f%%\n", viz.UsageBar(alloc.Usage(), 30), alloc.Usage()*100)
	}
	return nil
}

func snapshotFrame(cmd *cobra.Command, args []string) (err error) {
	cfg, _, p, err := readParticles(cmd, args[0])
	if err != nil {
		return err
	}
	if cfg.Catalogue == "" {
		cfg.Catalogue = args[0]
	}

	fr, err := promote(cfg, p)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, frame.Free(fr))
	}()

	if dev, ok := fr.(*frame.DeviceFrame); ok {
		if err := dev.Download(); err != nil {
			return err
		}
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(cfg, fr.Mode().String())
	if err != nil {
		return err
	}

	path, err := run.SaveFrame(cfg.StartFrame, fr)
	if err != nil {
		return err
	}
	if _, err := run.SaveTrajectory(cfg.StartFrame, fr); err != nil {
		return err
	}
	if cfg.Backups {
		if _, err := run.SaveBackup(cfg.StartFrame, fr); err != nil {
			return err
		}
	}

	fmt.Printf("run id: %s\n", run.Meta.ID)
	fmt.Printf("mode: %s\n", fr.Mode())
	fmt.Printf("frame: %s\n", path)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBODIES\tMODE\tFRAMES\tBACKUPS\tCATALOGUE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\n", r.ID, r.Bodies, r.Mode, len(r.Frames), len(r.Backups), r.Catalogue)
	}
	return w.Flush()
}
