// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/pkg/types"
)

var signCmd = &cobra.Command{
	Use:   "sign <document-id>",
	Short: "Record an electronic signature on a document",
	Long: `Sign stores a signature for the document. A draft document becomes
signed; other statuses are left alone. The signer's address is the
configured default since the CLI has no transport address.`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	role, _ := cmd.Flags().GetString("role")
	data, _ := cmd.Flags().GetString("data")

	if data == "" {
		data = name
	}

	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	sig, err := s.Sign(context.Background(), types.SignatureRequest{
		DocumentID:    args[0],
		Name:          name,
		Email:         email,
		Role:          role,
		SignatureData: data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Signature %s recorded for %s at %s\n",
		sig.ID, sig.Name, sig.SignedAt.Local().Format(time.DateTime))
	return nil
}

var signaturesCmd = &cobra.Command{
	Use:   "signatures <document-id>",
	Short: "List a document's signatures",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatures,
}

func runSignatures(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	sigs, err := s.Signatures(context.Background(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sigs)
	}
	if len(sigs) == 0 {
		fmt.Println("No signatures.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-12s  %-15s  %s\n", "ID", "Name", "Role", "IP", "Signed")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 112))
	for _, sig := range sigs {
		fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-12s  %-15s  %s\n",
			sig.ID, truncate(sig.Name, 24), truncate(sig.Role, 12), sig.IPAddress,
			sig.SignedAt.Local().Format(time.DateTime))
	}
	return nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify <signature-id>",
	Short: "Check that a stored signature is intact",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.VerifySignature(context.Background(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if !v.IsValid {
		return fmt.Errorf("signature %s is not valid", v.SignatureID)
	}
	return nil
}

func init() {
	signCmd.Flags().String("name", "", "signer name (required)")
	signCmd.Flags().String("email", "", "signer email")
	signCmd.Flags().String("role", "", "signer role, e.g. landlord or tenant")
	signCmd.Flags().String("data", "", "signature data; defaults to the typed name")
	signCmd.MarkFlagRequired("name")
	signaturesCmd.Flags().Bool("json", false, "output JSON")

	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(signaturesCmd)
	rootCmd.AddCommand(verifyCmd)
}
