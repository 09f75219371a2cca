package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhump/compatgo/merge"
)

type mergeFlags struct {
	jars         []string
	xmls         []string
	mergedConfig string
	deviceConfig string
}

func newMergeCmd() *cobra.Command {
	var flags mergeFlags
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge compat config documents into one",
		Long: `Merges the *_compat_config.xml entries of the given jar (or zip) files and
the given XML files into a single config. The merged config keeps metadata;
the device config keeps only the compat-change attributes.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, &flags)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&flags.jars, "jar", nil, "Jar file to extract compat configs from (repeatable)")
	f.StringArrayVar(&flags.xmls, "xml", nil, "Compat config XML file to merge (repeatable)")
	f.StringVar(&flags.mergedConfig, "merged-config", "", "Where to write the merged config, metadata included")
	f.StringVar(&flags.deviceConfig, "device-config", "", "Where to write the config with metadata stripped")
	return cmd
}

func runMerge(cmd *cobra.Command, flags *mergeFlags) error {
	if flags.mergedConfig == "" && flags.deviceConfig == "" {
		return usageError(errors.New("at least one of --merged-config and --device-config is required"))
	}
	logger := newLogger(cmd)

	m := merge.New()
	for _, jar := range flags.jars {
		n, err := m.MergeJarFile(jar)
		if err != nil {
			return err
		}
		logger.Verbose("Merged %d config(s) from %s", n, jar)
	}
	for _, xml := range flags.xmls {
		if err := m.MergeXMLFile(xml); err != nil {
			return err
		}
	}
	logger.Verbose("Merged %d change(s)", m.Len())

	if flags.deviceConfig != "" {
		if err := writeFile(flags.deviceConfig, m.WriteDeviceConfigTo); err != nil {
			return err
		}
	}
	if flags.mergedConfig != "" {
		if err := writeFile(flags.mergedConfig, m.WriteTo); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) (int64, error)) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
