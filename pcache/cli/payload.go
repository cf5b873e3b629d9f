package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCommand(st *state) *cobra.Command {
	var list1, list2 []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a payload from two lists and print its identifier.",
		Example: `  pcache build --list-1 hello,world --list-2 fastapi,test
  pcache build --list-1 a --list-1 b --list-2 c --list-2 d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			identifier, err := a.Builder().Build(cmd.Context(), list1, list2)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), identifier)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&list1, "list-1", []string{}, "first list (comma separated or repeated)")
	cmd.Flags().StringSliceVar(&list2, "list-2", []string{}, "second list (comma separated or repeated)")
	return cmd
}

func newLookupCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Print the payload stored under an identifier.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			output, err := a.Builder().Lookup(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
}
