package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

func newEncodeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <foreign-key> <primary-key>",
		Short: "Print the hex encoding of a combined key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := opts.newSchema()
			if err != nil {
				return err
			}
			fkType, pkType := opts.keyTypes()
			fk, err := parseKey(fkType, args[0])
			if err != nil {
				return err
			}
			pk, err := parseKey(pkType, args[1])
			if err != nil {
				return err
			}
			data, err := schema.ToBytes(fk, pk)
			if err != nil {
				return err
			}
			opts.logger.Debug("Encoded combined key", "foreign_key_type", fkType, "primary_key_type", pkType, "size", len(data))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
			return err
		},
	}
}

func newPrefixCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prefix <foreign-key>",
		Short: "Print the hex scan prefix for a foreign key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := opts.newSchema()
			if err != nil {
				return err
			}
			fkType, _ := opts.keyTypes()
			fk, err := parseKey(fkType, args[0])
			if err != nil {
				return err
			}
			data, err := schema.PrefixBytes(fk)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
			return err
		},
	}
}

func newDecodeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a hex combined key into its foreign and primary keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("invalid hex input: %w", err)
			}
			schema, err := opts.newSchema()
			if err != nil {
				return err
			}
			key, err := schema.FromBytes(data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "foreign=%s primary=%s\n", formatKey(key.ForeignKey()), formatKey(key.PrimaryKey()))
			return err
		},
	}
}
