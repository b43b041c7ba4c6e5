// Package main provides the corpus loader CLI: it reads a YAML manifest of
// safety documents and uploads each one to the API for extraction and
// indexing.
package main

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type manifestEntry struct {
	Title string `yaml:"title"`
	File  string `yaml:"file,omitempty"`
	URL   string `yaml:"url,omitempty"`
}

type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

var (
	manifestPath string
	corpusDir    string
	apiBaseURL   string

	rootCmd = &cobra.Command{
		Use:   "loader",
		Short: "Safety corpus loading tool",
	}

	loadCmd = &cobra.Command{
		Use:   "load",
		Short: "Upload every document from a YAML manifest",
		Long: `Reads a manifest of documents and uploads each to the API.

Manifest format:

  documents:
    - title: "Crane Operations Manual"
      file: ./corpus/crane.pdf
    - title: "Welding Safety Rules"
      url: https://example.com/welding.pdf

Each entry needs a title and either a local file path or a URL.`,
		RunE: runLoad,
	}

	rebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Trigger a full index rebuild and wait for the report",
		RunE:  runRebuild,
	}
)

func init() {
	loadCmd.Flags().StringVar(&manifestPath, "manifest", "corpus.yaml", "path to the document manifest")
	loadCmd.Flags().StringVar(&corpusDir, "dir", "", "directory that relative manifest file paths resolve against")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "http://localhost:8080", "base URL of the safety-qa API")
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Documents) == 0 {
		return fmt.Errorf("manifest %s lists no documents", manifestPath)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	uploaded := 0
	for i, entry := range m.Documents {
		if entry.Title == "" {
			return fmt.Errorf("manifest entry %d has no title", i)
		}
		if err := uploadEntry(cmd.Context(), client, entry); err != nil {
			fmt.Fprintf(os.Stderr, "upload %q failed: %v\n", entry.Title, err)
			continue
		}
		uploaded++
		fmt.Printf("uploaded %q\n", entry.Title)
	}

	fmt.Printf("done: %d/%d documents uploaded\n", uploaded, len(m.Documents))
	if uploaded == 0 {
		return fmt.Errorf("no documents uploaded")
	}
	return nil
}

func uploadEntry(ctx context.Context, client *http.Client, entry manifestEntry) error {
	body, filename, err := openEntry(ctx, client, entry)
	if err != nil {
		return err
	}
	defer body.Close()

	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)
	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err == nil {
			if _, copyErr := io.Copy(part, body); copyErr != nil {
				err = copyErr
			}
		}
		if err == nil {
			err = writer.WriteField("title", entry.Title)
		}
		if err == nil {
			err = writer.Close()
		}
		pipeWriter.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+"/v1/documents", pipeReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("api returned %s: %s", res.Status, payload)
	}
	return nil
}

func openEntry(ctx context.Context, client *http.Client, entry manifestEntry) (io.ReadCloser, string, error) {
	switch {
	case entry.File != "":
		path := entry.File
		if corpusDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(corpusDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open file: %w", err)
		}
		return f, filepath.Base(path), nil

	case entry.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
		if err != nil {
			return nil, "", err
		}
		res, err := client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("download: %w", err)
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, "", fmt.Errorf("download returned %s", res.Status)
		}
		name := filepath.Base(res.Request.URL.Path)
		if name == "/" || name == "." {
			name = "document.bin"
		}
		return res.Body, name, nil

	default:
		return nil, "", fmt.Errorf("entry needs a file or a url")
	}
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	client := &http.Client{Timeout: 15 * time.Minute}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, apiBaseURL+"/v1/index/rebuild", nil)
	if err != nil {
		return err
	}

	fmt.Println("rebuilding index...")
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned %s: %s", res.Status, payload)
	}
	fmt.Printf("build report: %s\n", payload)
	return nil
}
