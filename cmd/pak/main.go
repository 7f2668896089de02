// Command pak packs a directory into a game resource archive or restores one.
//
//	pak /P <archiveFile> <directory>
//	pak /U <archiveFile> <directory>
//
// The exit code is the archive result code for the chosen direction, or 0xF7
// for an unknown mode or the wrong number of arguments.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pvztk/config"
	"pvztk/pak"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	code := pak.InvalidExitCode
	var configPath string

	rootCommand := &cobra.Command{
		Use:   "pak <mode> <archiveFile> <directory>",
		Short: "Pack or unpack a game resource archive.",
		Long: `Pack or unpack a game resource archive.

Modes:
  /P  pack <directory> into <archiveFile>
  /U  unpack <archiveFile> into <directory>`,
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, file, dir := args[0], args[1], args[2]

			var op pak.Operation
			switch mode {
			case "/P":
				op = pak.OpPack
			case "/U":
				op = pak.OpUnpack
			default:
				return fmt.Errorf("unknown mode %q", mode)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			codec := pak.NewCodec(cfg.Archive.IgnoreNames)

			if op == pak.OpPack {
				err = codec.Pack(dir, file)
			} else {
				err = codec.Unpack(file, dir)
			}
			code = pak.ResultOf(err).ExitCode(op)
			if err != nil {
				fmt.Fprintln(stderr, err)
			}
			return nil
		},
	}
	rootCommand.Flags().StringVar(&configPath, "config", "pvztk.yml", "Config file; the archive ignore list is read from it.")

	rootCommand.SetArgs(args)
	rootCommand.SetOut(stdout)
	rootCommand.SetErr(stderr)

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(stderr, "pak:", err)
		return pak.InvalidExitCode
	}
	return code
}
