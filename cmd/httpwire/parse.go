// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/gogama/httpwire/request"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newParseCmd(a *app) *cobra.Command {
	var showURL bool
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a literal request and print it in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(inputArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			r, err := request.Parse(text, request.WithLogger(a.logger))
			if err != nil {
				return err
			}
			a.logger.Debug("parsed request", zap.String("id", r.ID), zap.String("url", r.URL.Redacted()))
			if showURL {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), r.URL.String())
				return err
			}
			_, err = r.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&showURL, "url", false, "print only the target URL")
	return cmd
}
