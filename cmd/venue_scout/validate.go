package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/venue-scout/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a saved result against the result schema",
	RunE:  runValidate,
}

var (
	validateIn     string
	validateSchema string
)

func init() {
	validateCmd.Flags().StringVarP(&validateIn, "in", "i", "", "Result JSON file (required)")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Validate against this schema file instead of the built-in one")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func validateFile(path, schemaPath string) error {
	if schemaPath != "" {
		return schemas.ValidateJSON(schemaPath, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return schemas.ValidateResultJSON(data)
}

func runValidate(_ *cobra.Command, _ []string) error {
	if err := validateFile(validateIn, validateSchema); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Validation passed: %s\n", validateIn)
	return nil
}
