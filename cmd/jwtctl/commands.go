package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var claims, headers []string

	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create and sign a token of the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimMap, err := parsePairs(claims)
			if err != nil {
				return err
			}
			headerMap, err := parsePairs(headers)
			if err != nil {
				return err
			}

			token, err := a.manager.Create(args[0], claimMap, headerMap)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&claims, "claim", "c", nil, "claim as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "header as key=value (repeatable)")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <type> <token>",
		Short: "Parse and validate a token as the given type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.manager.Parse(args[1], args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(map[string]any{
				"headers": token.Headers(),
				"claims":  token.Claims(),
			}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered types and the configuration each resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, name := range a.manager.TypeNames() {
				_, cfg, err := a.manager.Resolve(name)
				if err != nil {
					fmt.Fprintf(w, "%s\t<error: %v>\n", name, err)
					continue
				}
				marker := ""
				if cfg.Name() == a.configs.DefaultName() {
					marker = "\t(default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s%s\n", name, cfg.Name(), cfg.Signer().Name(), marker)
			}
			return nil
		},
	}
}

func decodeValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
