package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/app"
	"github.com/ayusman/typecoach/internal/config"
	"github.com/ayusman/typecoach/internal/hook"
	"github.com/ayusman/typecoach/internal/keyboard"
	"github.com/ayusman/typecoach/internal/keylisten"
	"github.com/ayusman/typecoach/internal/practice"
	"github.com/ayusman/typecoach/internal/server"
	"github.com/ayusman/typecoach/internal/shm"
	"github.com/ayusman/typecoach/internal/store"
	"github.com/ayusman/typecoach/internal/tray"
)

var (
	runStrategy string
	runLevel    string
	runText     int
	runNoServer bool
	runNoTray   bool
	runNoStore  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calibrate and check fingering as you type",
	Long: "Reads hand landmarks published by 'typecoach detect', asks for the calibration " +
		"anchor keys, then judges every keystroke: correct finger, wrong finger, or unknown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("strategy") {
			cfg.Calibration.Strategy = runStrategy
		}
		if cmd.Flags().Changed("drill") {
			cfg.Practice.Level = runLevel
		}
		if cmd.Flags().Changed("text") {
			cfg.Practice.Text = runText
		}
		if runNoServer {
			cfg.Server.Enabled = false
		}
		if runNoTray {
			cfg.Tray.Enabled = false
		}
		if runNoStore {
			cfg.Store.Path = ""
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runCorrector(cmd.Context(), cfg)
	},
}

func runCorrector(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	strategy, err := keyboard.StrategyByName(cfg.Calibration.Strategy)
	if err != nil {
		return err
	}

	results, err := shm.OpenResultChannel(cfg.Channel.Dir, cfg.Channel.Results)
	if err != nil {
		return fmt.Errorf("is 'typecoach detect' running? %w", err)
	}
	defer results.Close()

	source, raw := keySource(cfg.Keys, cancel)
	if raw {
		log.SetOutput(keylisten.RawWriter{W: os.Stderr})
		defer log.SetOutput(os.Stderr)
	}

	st, err := openStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	dispatcher, err := openHooks(cfg.Hooks)
	if err != nil {
		return err
	}

	var drill *practice.Drill
	if cfg.Practice.Level != "" {
		drill, err = practice.NewDrill(practice.Level(cfg.Practice.Level), cfg.Practice.Text)
		if err != nil {
			return err
		}
		log.Printf("Drill (%s): %s", drill.Level(), drill.Text())
	}

	var hub *server.EventHub
	if cfg.Server.Enabled {
		hub = server.NewEventHub()
	}

	var frames server.FrameSource
	if hub != nil {
		if fc := openStream(cfg); fc != nil {
			defer fc.Close()
			frames = fc
		}
	}

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		tr = tray.New()
	}

	appCfg := app.Config{
		Results:   results,
		Keys:      keylisten.NewMailbox(),
		Strategy:  strategy,
		Corrector: cfg.CorrectorSettings(),
		Alpha:     cfg.Corrector.Alpha,
		Store:     st,
		Hooks:     dispatcher,
		Drill:     drill,
	}
	if hub != nil {
		appCfg.Events = hub
	}
	if tr != nil {
		appCfg.OnEvent = func(ev app.Event) {
			tr.SetStatus(tray.StatusLine(ev.Event, ev.Next))
		}
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := source.Run(ctx, appCfg.Keys); err != nil {
			log.Printf("Key source failed: %v", err)
		}
		cancel()
	}()

	if dispatcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatcher.Run(ctx)
		}()
	}

	if hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()

		srv := server.New(server.Config{
			StaticDir: cfg.Server.StaticDir,
			Store:     st,
			Status:    a,
			Frames:    frames,
			Events:    hub,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Dashboard on http://%s", dashboardHost(cfg.Server.Addr))
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		cancel()
	}()

	if tr != nil {
		tr.OnToggle(a.SetEnabled)
		tr.OnRecalibrate(a.Recalibrate)
		tr.OnDashboard(func() { openBrowser("http://" + dashboardHost(cfg.Server.Addr)) })
		tr.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
	}

	err = <-errCh
	wg.Wait()
	return err
}

// keySource builds the configured key source. raw reports whether it puts
// the terminal in raw mode.
func keySource(kc config.KeysConfig, interrupt func()) (keylisten.Source, bool) {
	if kc.Source == config.KeySourceProcess {
		return &keylisten.ProcessSource{Command: kc.Command, Args: kc.Args}, false
	}
	return keylisten.NewTerminalSource(interrupt), true
}

// openStore opens the session journal. An empty path disables it.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}

// openHooks returns nil when no hooks are installed.
func openHooks(hc config.HooksConfig) (*hook.Dispatcher, error) {
	manager := hook.NewManager(hc.Dir)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover hooks: %w", err)
	}

	hooks := manager.List()
	if len(hooks) == 0 {
		return nil, nil
	}
	for _, h := range hooks {
		log.Printf("Hook %s %s loaded", h.Manifest.Name, h.Manifest.Version)
	}
	return hook.NewDispatcher(manager, hook.NewExecutor(hc.Timeout), hook.DefaultQueueSize), nil
}

// openStream attaches to the frame channel as an observer for the live
// stream. Without a camera the stream is disabled.
func openStream(cfg *config.Config) *shm.FrameChannel {
	frames, err := shm.OpenFrameChannel(cfg.Channel.Dir, cfg.Channel.Frames, cfg.FrameDimensions())
	if err != nil {
		log.Printf("Live stream disabled: %v", err)
		return nil
	}
	return frames
}

func dashboardHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
		return
	}
	go cmd.Wait()
}

func init() {
	flags := runCmd.Flags()
	flags.StringVar(&runStrategy, "strategy", "", "calibration model: linear (2 anchors) or projective (4 anchors)")
	flags.StringVar(&runLevel, "drill", "", "start a practice drill: beginner, intermediate or advanced")
	flags.IntVar(&runText, "text", 0, "drill text index within the level")
	flags.BoolVar(&runNoServer, "no-server", false, "do not start the dashboard API")
	flags.BoolVar(&runNoTray, "no-tray", false, "do not show the tray icon")
	flags.BoolVar(&runNoStore, "no-journal", false, "do not record the session")
	rootCmd.AddCommand(runCmd)
}
