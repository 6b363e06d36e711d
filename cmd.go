package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/nconklindev/sheetdrop/internal/config"
	"github.com/nconklindev/sheetdrop/internal/converter"
	"github.com/nconklindev/sheetdrop/internal/download"
	"github.com/nconklindev/sheetdrop/internal/dropzone"
	"github.com/nconklindev/sheetdrop/internal/logging"
	"github.com/nconklindev/sheetdrop/internal/ui"
	"github.com/nconklindev/sheetdrop/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app bundles what every command needs once config is loaded.
type app struct {
	cfg       *config.Config
	logger    log.Logger
	closer    io.Closer
	submitter *workflow.Submitter
}

func newApp(v *viper.Viper, cfgFile string) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client := converter.NewClient(cfg.Endpoint, log.With(logger, "component", "converter"))
	client.FieldName = cfg.FieldName

	submitter := workflow.NewSubmitter(client, download.NewFileDownloader(cfg.OutputDir), log.With(logger, "component", "workflow"))
	submitter.Filename = cfg.OutputName

	return &app{cfg: cfg, logger: logger, closer: closer, submitter: submitter}, nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "sheetdrop [pdf...]",
		Short: "Upload PDFs to a conversion service and download the spreadsheet",
		Long: `sheetdrop collects PDF files, posts them to a PDF-to-Excel conversion
endpoint and saves the returned workbook as output.xlsx.

Run without a subcommand to open the terminal UI. Drag PDFs onto the
terminal window or pick them in the file browser, then press u to upload.
Any PDFs given as arguments are selected on start.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v, cfgFile)
			if err != nil {
				return err
			}
			defer a.closer.Close()

			p := tea.NewProgram(ui.InitialModel(a.submitter, args, a.logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sheetdrop.yaml or ~/.config/sheetdrop/sheetdrop.yaml)")
	if err := config.BindFlags(v, root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(newConvertCmd(v, &cfgFile), newVersionCmd())
	return root
}

var errConversionFailed = errors.New(workflow.FailureMessage)

func newConvertCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [pdf...]",
		Short: "Convert PDFs without the terminal UI",
		Long: `convert selects the given files (non-PDFs are skipped), submits them to the
conversion endpoint and saves the result. It exits non-zero if the
conversion fails; details go to the log file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v, *cfgFile)
			if err != nil {
				return err
			}
			defer a.closer.Close()

			return runConvert(cmd, a.submitter, args)
		},
	}
}

func runConvert(cmd *cobra.Command, submitter *workflow.Submitter, paths []string) error {
	out := cmd.OutOrStdout()
	c := workflow.NewController(submitter)

	files, rejected := dropzone.Collect(paths)
	for _, r := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %s\n", r.Path, r.Reason)
	}
	c.Accept(files, rejected)

	st := c.Submit(cmd.Context())
	if st.Phase != workflow.PhaseSucceeded {
		return errConversionFailed
	}

	fmt.Fprintln(out, st.Message)
	if st.Result != nil {
		fmt.Fprintf(out, "Saved: %s (%d bytes)\n", st.Result.OutputFile, st.Result.Bytes)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of sheetdrop",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sheetdrop %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
