package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/logger"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
)

// cli carries the state shared by every subcommand once the root has run.
type cli struct {
	cfgFile   string
	verbose   bool
	dataDir   string
	segmenter string
	colorMode string

	cfg    *config.Config
	logger *slog.Logger
	out    *printer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "mrcprep",
		Short: "Machine reading comprehension dataset preparation",
		Long: `mrcprep prepares DuReader-style machine reading comprehension datasets.

It locates the best matching answer span in each sample, exports the
paragraph corpus and bulk loads it into a local or Meilisearch index.

Example usage:
  mrcprep fake-answers --in train.json.gz --out train.fake.json.gz
  mrcprep export-corpus --in train.json --out corpus.json
  mrcprep index --in train.json --backend local
  mrcprep search --query "北京 首都"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./mrcprep.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "local index directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&c.colorMode, "color", colorAuto, "color summaries: auto, always or never")
	rootCmd.PersistentFlags().StringVar(&c.segmenter, "segmenter", "", "segmenter for raw queries: whitespace, words or jieba (overrides config)")

	rootCmd.AddCommand(
		newFakeAnswersCmd(c),
		newExportCorpusCmd(c),
		newIndexCmd(c),
		newSearchCmd(c),
		newVersionCmd(),
	)
	return rootCmd
}

// init loads the configuration and builds the logger. Logs go to stderr so
// stdout stays machine readable.
func (c *cli) init(cmd *cobra.Command) error {
	useColors, err := resolveColors(c.colorMode)
	if err != nil {
		return err
	}
	c.out = &printer{out: cmd.OutOrStdout(), useColors: useColors}

	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.segmenter != "" {
		cfg.Segmenter = c.segmenter
	}
	c.cfg = cfg

	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	c.logger = logger.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	c.logger.Debug("configuration loaded",
		slog.String("data_dir", cfg.DataDir),
		slog.String("segmenter", cfg.Segmenter),
		slog.String("index", cfg.Index.Name))
	return nil
}

func (c *cli) newSegmenter() (tokenizer.Segmenter, func(), error) {
	return tokenizer.NewSegmenter(c.cfg.Segmenter)
}
