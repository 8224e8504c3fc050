package command

import (
	"encoding/hex"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pptgate/internal/decode"
)

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pptgate-cli",
		Short: "PPT modulator telemetry decoding CLI",
		Long:  `pptgate-cli decodes raw telemetry frames and inspects field layout profiles.`,
	}

	rootCmd.AddCommand(NewDecodeCommand())
	rootCmd.AddCommand(NewProfilesCommand())

	return rootCmd
}

// NewDecodeCommand 创建 decode 子命令
func NewDecodeCommand() *cobra.Command {
	var profileID string

	cmd := &cobra.Command{
		Use:   "decode <hexframe>",
		Short: "Decode a single telemetry frame",
		Long:  `Decode a hex encoded telemetry frame and print each field with its raw word and scaled value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0])%2 != 0 {
				return fmt.Errorf("十六进制帧长度必须为偶数")
			}
			frame, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("十六进制帧格式错误: %w", err)
			}

			values, err := decode.DecodeDetail(frame, profileID)
			if err != nil {
				return fmt.Errorf("解码失败: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tOFFSET\tRAW\tVALUE\tUNIT")
			for _, fv := range values {
				fmt.Fprintf(w, "%s\t%d\t0x%04X\t%g\t%s\n",
					fv.Spec.Name, fv.Spec.Offset, fv.Raw, fv.Value, fv.Spec.Unit)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&profileID, "profile", "p", "modulator22", "decoding profile to use")

	return cmd
}

// NewProfilesCommand 创建 profiles 子命令
func NewProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List registered decoding profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tFIELDS")
			for _, id := range decode.Profiles() {
				fields, err := decode.Fields(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\n", id, len(fields))
			}
			return w.Flush()
		},
	}
}
