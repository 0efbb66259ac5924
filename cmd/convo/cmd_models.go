package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/elee1766/convo/src/aisdk"
)

// ModelsCmd manages model operations
type ModelsCmd struct {
	List   ModelListCmd   `cmd:"" default:"1" help:"List available models (default)"`
	Info   ModelInfoCmd   `cmd:"" help:"Get information about a specific model"`
	Search ModelSearchCmd `cmd:"" help:"Search for models by name"`
	Test   ModelTestCmd   `cmd:"" help:"Test a model with a simple prompt"`
}

// ModelListCmd lists available models
type ModelListCmd struct {
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	models, err := a.ModelProvider.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	return printModels(os.Stdout, models, c.Format)
}

// ModelInfoCmd gets information about a specific model
type ModelInfoCmd struct {
	Model  string `arg:"" help:"Model ID or alias"`
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model info command
func (c *ModelInfoCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	model, err := a.ModelProvider.GetModelByID(ctx, c.Model)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, model)
	}
	return printModelTable(os.Stdout, model)
}

// ModelSearchCmd searches for models by name
type ModelSearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model search command
func (c *ModelSearchCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	matches, err := a.ModelProvider.FindModels(ctx, c.Query)
	if err != nil {
		return fmt.Errorf("failed to search models: %w", err)
	}
	if len(matches) == 0 {
		fmt.Printf("No models found matching '%s'\n", c.Query)
		return nil
	}
	if c.Format == "table" {
		fmt.Printf("Found %d models matching '%s':\n\n", len(matches), c.Query)
	}
	return printModels(os.Stdout, matches, c.Format)
}

// ModelTestCmd tests a model with a simple prompt
type ModelTestCmd struct {
	Model  string `arg:"" optional:"" help:"Model ID (defaults to --model)"`
	Prompt string `help:"Test prompt" default:"what is 9 + 10?"`
}

// Run executes the model test command
func (c *ModelTestCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	name := c.Model
	if name == "" {
		name = a.Config.Model
	}
	modelClient, err := a.ModelProvider.Model(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	fmt.Printf("Testing model: %s\n", modelClient.GetModelInfo().DisplayName())
	fmt.Printf("Prompt: %s\n\n", c.Prompt)

	maxTokens := 100
	resp, err := modelClient.CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{
			{
				Role:    aisdk.RoleUser,
				Content: c.Prompt,
			},
		},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat completion: %w", err)
	}

	fmt.Printf("Response: %s\n\n", resp.Choices[0].Message.Content)
	if resp.Usage.TotalTokens > 0 {
		fmt.Printf("Usage:\n")
		fmt.Printf("  Prompt tokens: %d\n", resp.Usage.PromptTokens)
		fmt.Printf("  Completion tokens: %d\n", resp.Usage.CompletionTokens)
		fmt.Printf("  Total tokens: %d\n", resp.Usage.TotalTokens)
	}
	return nil
}

// Helper functions for printing

func printModels(w io.Writer, models []*aisdk.ModelInfo, format string) error {
	if format == "json" {
		return printJSON(w, models)
	}
	return printModelsTable(w, models)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printModelsTable(w io.Writer, models []*aisdk.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tContext Length")
	fmt.Fprintln(tw, "---\t----\t--------------")
	for _, model := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", model.ID, model.DisplayName(), model.ContextLength)
	}
	return tw.Flush()
}

func printModelTable(w io.Writer, model *aisdk.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", model.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", model.DisplayName())
	if model.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", model.Description)
	}
	fmt.Fprintf(tw, "Context Length:\t%d\n", model.ContextLength)
	if model.OwnedBy != "" {
		fmt.Fprintf(tw, "Owned By:\t%s\n", model.OwnedBy)
	}
	if len(model.Aliases) > 0 {
		fmt.Fprintf(tw, "Aliases:\t%s\n", strings.Join(model.Aliases, ", "))
	}
	if model.Deprecation != nil {
		fmt.Fprintf(tw, "Deprecated:\t%s\n", *model.Deprecation)
	}
	return tw.Flush()
}
