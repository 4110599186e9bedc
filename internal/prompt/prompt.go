// Package prompt loads the markdown prompt templates handed to an external
// model for bank-statement parsing.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BankStatementTemplate is the template used for statement parsing prompts.
const BankStatementTemplate = "bank_statement_prompt"

const defaultTemplate = "# 默认提示词模板\n\n请在此处编写提示词内容\n"

// Load reads the named template from dir, creating a skeleton file on first
// use so it can be edited in place. A freshly created template renders empty.
func Load(dir, name string) (string, error) {
	path := filepath.Join(dir, name+".md")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create prompt dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
			return "", fmt.Errorf("create prompt template %s: %w", path, err)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", path, err)
	}
	return string(raw), nil
}

// Generate fills the bank-statement template for month. The template refers
// to the month as {month}.
func Generate(dir, month string) (string, error) {
	tmpl, err := Load(dir, BankStatementTemplate)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(tmpl, "{month}", month)), nil
}
