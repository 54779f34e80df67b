package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-asdf/asdf"
)

// infoT holds the commands and their flags.
type infoT struct {
	Root     *cobra.Command
	Arrays   *cobra.Command
	Blocks   *cobra.Command
	Show     *cobra.Command
	Validate *cobra.Command
	Convert  *cobra.Command

	memmap  bool
	verbose bool

	storage     string
	compression string
	level       int
	threshold   int
}

func newInfo() *infoT {
	i := &infoT{}
	i.Root = &cobra.Command{
		Use:           "asdfinfo [command] (flags)",
		Short:         "ASDF file introspection tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	i.Arrays = &cobra.Command{
		Use:   "arrays <file>",
		Short: "list the arrays of a file",
		Long: `
List every array of the tree with its source, shape and datatype. Arrays
are not loaded unless their shape depends on a streamed block.
`,
		Args: cobra.ExactArgs(1),
		RunE: i.runArrays,
	}
	i.Blocks = &cobra.Command{
		Use:   "blocks <file>",
		Short: "list the binary blocks of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  i.runBlocks,
	}
	i.Show = &cobra.Command{
		Use:   "show <file> <path>",
		Short: "print the contents of an array",
		Long: `
Print the array at path, as listed by the arrays command.
`,
		Args: cobra.ExactArgs(2),
		RunE: i.runShow,
	}
	i.Validate = &cobra.Command{
		Use:   "validate <file>",
		Short: "load every array, verifying block checksums",
		Args:  cobra.ExactArgs(1),
		RunE:  i.runValidate,
	}
	i.Convert = &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "rewrite a file with different array storage or compression",
		Args:  cobra.ExactArgs(2),
		RunE:  i.runConvert,
	}

	i.Root.PersistentFlags().BoolVar(
		&i.memmap, "memmap", false, "map uncompressed blocks into memory")
	i.Root.PersistentFlags().BoolVarP(
		&i.verbose, "verbose", "v", false, "log block and file activity")

	i.Convert.Flags().StringVar(
		&i.storage, "storage", "", "storage of every array: internal, external, inline or streamed")
	i.Convert.Flags().StringVar(
		&i.compression, "compression", asdf.CompressionInput,
		"block compression: zlib, zstd, snpy, none, or input to keep each block's")
	i.Convert.Flags().IntVar(
		&i.level, "level", -1, "compression level (-1 for the codec default)")
	i.Convert.Flags().IntVar(
		&i.threshold, "inline-threshold", -1, "write arrays with fewer elements inline (-1 to disable)")

	i.Root.AddCommand(i.Arrays, i.Blocks, i.Show, i.Validate, i.Convert)
	return i
}

func (i *infoT) open(path string, extra ...asdf.Option) (*asdf.File, error) {
	opts := []asdf.Option{asdf.WithMemmap(i.memmap)}
	if i.verbose {
		opts = append(opts, asdf.WithLogger(asdf.DefaultLogger{}))
	}
	return asdf.Open(path, append(opts, extra...)...)
}

func (i *infoT) runArrays(cmd *cobra.Command, args []string) error {
	f, err := i.open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"Path", "Source", "Shape", "Datatype", "Masked"})
	err = f.Walk(func(path string, v *asdf.NDArray) error {
		shape, err := v.Shape()
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		tbl.Append([]string{
			path,
			v.Source().String(),
			fmt.Sprint(shape),
			v.DType().String(),
			strconv.FormatBool(v.IsMasked()),
		})
		return nil
	})
	if err != nil {
		return err
	}
	tbl.Render()
	return nil
}

func (i *infoT) runBlocks(cmd *cobra.Command, args []string) error {
	f, err := i.open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	infos, err := f.Blocks()
	if err != nil {
		return err
	}
	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"Block", "Compression", "Allocated", "Used", "Data", "Streamed"})
	for _, b := range infos {
		compression := b.Compression
		if compression == "" {
			compression = "none"
		}
		tbl.Append([]string{
			strconv.Itoa(b.Index),
			compression,
			strconv.FormatUint(b.AllocatedSize, 10),
			strconv.FormatUint(b.UsedSize, 10),
			strconv.FormatUint(b.DataSize, 10),
			strconv.FormatBool(b.Streamed),
		})
	}
	tbl.Render()
	return nil
}

func (i *infoT) runShow(cmd *cobra.Command, args []string) error {
	f, err := i.open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var found *asdf.NDArray
	err = f.Walk(func(path string, v *asdf.NDArray) error {
		if path == args[1] {
			found = v
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == nil {
		return errors.Newf("no array at %s", args[1])
	}
	a, err := found.Array()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", found.DType(), fmt.Sprint(a.Shape()), a)
	return err
}

func (i *infoT) runValidate(cmd *cobra.Command, args []string) error {
	f, err := i.open(args[0], asdf.WithValidateChecksums(true))
	if err != nil {
		return err
	}
	defer f.Close()

	w := cmd.OutOrStdout()
	failed := 0
	err = f.Walk(func(path string, v *asdf.NDArray) error {
		if _, err := v.Array(); err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n", path, err)
			return nil
		}
		fmt.Fprintf(w, "%s: ok\n", path)
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.Newf("%d arrays failed to load", failed)
	}
	return nil
}

func (i *infoT) runConvert(cmd *cobra.Command, args []string) error {
	opts, err := i.writeOptions()
	if err != nil {
		return err
	}
	f, err := i.open(args[0], opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(args[1]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
	return err
}

func (i *infoT) writeOptions() ([]asdf.Option, error) {
	var opts []asdf.Option
	if i.storage != "" {
		kind, err := asdf.ParseStorageKind(i.storage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, asdf.WithArrayStorage(kind))
	}

	label := i.compression
	if label == "none" {
		label = ""
	}
	var kwargs map[string]any
	if i.level >= 0 {
		kwargs = map[string]any{"level": i.level}
	}
	opts = append(opts, asdf.WithArrayCompression(label, kwargs))

	if i.threshold >= 0 {
		opts = append(opts, asdf.WithInlineThreshold(i.threshold))
	}
	return opts, nil
}
