// Command ptk locates the running game and reads or writes values in it
// through pointer chains.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/spf13/cobra"

	"pvztk/config"
	"pvztk/hexdump"
	"pvztk/process"
	"pvztk/process/memory_map"
)

type app struct {
	configPath   string
	pointerWidth int

	cfg *config.Config
	out io.Writer
	log *logger.Logger
}

func main() {
	a := &app{
		out: os.Stdout,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "ptk")),
	}
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ptk:", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "ptk",
		Short:         "Find the running game and read or write its memory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pointer-width") {
				cfg.PointerWidth = a.pointerWidth
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			a.cfg = cfg
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&a.configPath, "config", "pvztk.yml", "Config file.")
	rootCommand.PersistentFlags().IntVar(&a.pointerWidth, "pointer-width", 4, "Pointer size of the game process in bytes, 4 or 8. Overrides the config file.")

	rootCommand.AddCommand(a.findCommand(), a.watchCommand(), a.readCommand(), a.writeCommand())
	return rootCommand
}

func (a *app) newLocator() *process.Locator {
	return process.NewLocator(newHelper(), newWindowSystem(), a.cfg.Target.MainWindowClass)
}

// locate tries the configured window first and the executable name second.
func (a *app) locate(loc *process.Locator) bool {
	t := a.cfg.Target
	if (t.WindowClass != "" || t.WindowTitle != "") && loc.LocateByWindow(t.WindowClass, t.WindowTitle) && loc.IsValid() {
		return true
	}
	if t.Executable != "" && loc.LocateByExecutable(t.Executable) {
		return loc.IsValid()
	}
	return false
}

func (a *app) mustLocate() (*process.Locator, error) {
	loc := a.newLocator()
	if !a.locate(loc) {
		loc.Close()
		return nil, errors.New("game not found")
	}
	return loc, nil
}

func (a *app) findCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find",
		Short: "Locate the game and print its process id and window.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.mustLocate()
			if err != nil {
				return err
			}
			defer loc.Close()

			fmt.Fprintf(a.out, "pid %d window %s %s\n", loc.PID(), loc.Window(), a.cfg.Width())
			return nil
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report whenever the game starts or exits, until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			loc := a.newLocator()
			defer loc.Close()
			return a.watch(ctx, loc)
		},
	}
}

// watch polls liveness, faster while the game is down so it is picked up
// soon after launch.
func (a *app) watch(ctx context.Context, loc *process.Locator) error {
	online := false
	ticker := time.NewTicker(a.cfg.Poll.Offline)
	defer ticker.Stop()

	for {
		valid := loc.IsValid()
		if !valid {
			valid = a.locate(loc)
		}

		if valid != online {
			online = valid
			if online {
				a.log.Infoln("Game online, pid", loc.PID())
				fmt.Fprintf(a.out, "online pid %d window %s\n", loc.PID(), loc.Window())
				ticker.Reset(a.cfg.Poll.Online)
			} else {
				a.log.Infoln("Game offline")
				fmt.Fprintln(a.out, "offline")
				ticker.Reset(a.cfg.Poll.Offline)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) readCommand() *cobra.Command {
	var path pathValue
	kind := kindValue{kind: valueKinds["int32"]}
	var count int

	readCommand := &cobra.Command{
		Use:   "read",
		Short: "Read a value at the end of a pointer chain.",
		Long: `Read a value at the end of a pointer chain.

Every offset but the last is dereferenced with the game's pointer width:

  ptk read --path 0x6a9ec0,0x768,0x5560 --type int32`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			loc, err := a.mustLocate()
			if err != nil {
				return err
			}
			defer loc.Close()

			acc := process.NewAccessor(loc, a.cfg.Width())
			addr, err := acc.Resolve(path.path)
			if err != nil {
				return err
			}
			v, err := kind.kind.read(acc, path.path, count)
			if err != nil {
				return err
			}
			a.printValue(loc, path.path, addr, v)
			return nil
		},
	}
	readCommand.Flags().Var(&path, "path", "Comma separated offsets, e.g. 0x6a9ec0,0x768,0x5560.")
	readCommand.Flags().Var(&kind, "type", "Value type: "+fmt.Sprint(kindNames())+".")
	readCommand.Flags().IntVar(&count, "count", 1, "Number of consecutive values to read.")
	readCommand.MarkFlagRequired("path")
	return readCommand
}

func (a *app) writeCommand() *cobra.Command {
	var path pathValue
	kind := kindValue{kind: valueKinds["int32"]}
	var value string
	var verify bool

	writeCommand := &cobra.Command{
		Use:   "write",
		Short: "Write a value at the end of a pointer chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.mustLocate()
			if err != nil {
				return err
			}
			defer loc.Close()

			acc := process.NewAccessor(loc, a.cfg.Width())
			if err := writeValue(acc, kind.kind, path.path, value, verify); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <-- %s\n", path.path, value)
			return nil
		},
	}
	writeCommand.Flags().Var(&path, "path", "Comma separated offsets, e.g. 0x6a9ec0,0x768,0x5560.")
	writeCommand.Flags().Var(&kind, "type", "Value type: "+fmt.Sprint(kindNames())+".")
	writeCommand.Flags().StringVar(&value, "value", "", "Value to write; hex for bytes.")
	writeCommand.Flags().BoolVar(&verify, "verify", false, "Read the value back and fail if it differs.")
	writeCommand.MarkFlagRequired("path")
	writeCommand.MarkFlagRequired("value")
	return writeCommand
}

type memoryMapper interface {
	GetMemoryMap() (memory_map.MemoryMap, error)
}

func (a *app) printValue(loc *process.Locator, path process.MemoryPath, addr process.ProcessMemoryAddress, v any) {
	data, ok := v.([]byte)
	if !ok {
		fmt.Fprintf(a.out, "%s --> %v\n", path, v)
		return
	}

	options := hexdump.DefaultOptions()
	options.Address = uint64(addr)
	options.PointerWidth = a.cfg.Width()
	if mapper, ok := loc.Process().(memoryMapper); ok {
		if mm, err := mapper.GetMemoryMap(); err == nil {
			options.Regions = mm
		} else {
			a.log.Warn("Memory map unavailable: ", err)
		}
	}
	fmt.Fprintf(a.out, "%s\n", path)
	hexdump.DumpToWriter(a.out, data, options)
}
