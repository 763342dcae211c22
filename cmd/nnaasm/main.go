package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Xgames123/nna/pkg/asm"
	"github.com/Xgames123/nna/pkg/nna"
	"github.com/spf13/cobra"
)

// readInput reads the source program from a path, or from stdin for "-".
func readInput(path string) (filename, source string, err error) {
	if path == "-" {
		fmt.Println("Reading program from stdin...")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return "stdin", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(path), string(data), nil
}

func parseArchFlag(name string) (nna.Architecture, error) {
	arch, ok := nna.ParseArchitecture(name)
	if !ok {
		return 0, fmt.Errorf("unknown architecture %q (want nna8v1 or nna8v2)", name)
	}
	return arch, nil
}

func main() {
	var output string
	var format string
	var archName string
	var memUsage bool

	rootCmd := &cobra.Command{
		Use:   "nnaasm [input]",
		Short: "Assembler for the NNA 8-bit CPU family",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			arch, err := parseArchFlag(archName)
			if err != nil {
				return err
			}

			filename, source, err := readInput(input)
			if err != nil {
				return fmt.Errorf("failed to read '%s': %w", input, err)
			}

			image, diag := asm.Assemble(filename, source, arch)
			if diag != nil {
				fmt.Fprint(os.Stderr, diag.Render(source))
				os.Exit(1)
			}

			if memUsage {
				start, end := image.MemUsage()
				fmt.Printf("Using %d/%d bytes\n", end-start, len(image)*256)
			}

			var data []byte
			switch format {
			case "bin":
				data = image.Raw()
			case "hex":
				data = []byte(image.HexDump())
			default:
				return fmt.Errorf("unknown format %q (want bin or hex)", format)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&output, "output", "o", "out.bin", "Output file")
	rootCmd.Flags().StringVar(&format, "format", "bin", "Output format: bin or hex")
	rootCmd.Flags().StringVar(&archName, "arch", "nna8v1", "Target architecture: nna8v1 or nna8v2")
	rootCmd.Flags().BoolVarP(&memUsage, "memory-usage", "m", false,
		"Print the amount of space the program uses")

	disasmCmd := &cobra.Command{
		Use:   "disasm [input]",
		Short: "Disassemble a binary image bank by bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			arch, err := parseArchFlag(archName)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read '%s': %w", args[0], err)
			}
			for i, b := range data {
				if i%256 == 0 {
					fmt.Printf("; bank %#04x\n", i/256)
				}
				fmt.Printf("%#04x: %s\n", i%256, nna.Disassemble(arch, b))
			}
			return nil
		},
	}
	disasmCmd.Flags().StringVar(&archName, "arch", "nna8v1", "Target architecture: nna8v1 or nna8v2")
	rootCmd.AddCommand(disasmCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
