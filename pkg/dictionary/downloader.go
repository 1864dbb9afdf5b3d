package dictionary

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/japaniel/tango/pkg/logging"
)

const (
	DefaultDictFileName = "jmdict-eng-common.json"
	repoOwner           = "scriptin"
	repoName            = "jmdict-simplified"
)

// ReleaseAPIURL is the GitHub endpoint describing the latest dictionary release.
var ReleaseAPIURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

var ErrNoDictionaryAsset = errors.New("no suitable dictionary asset found in latest release")

// EnsureDictionary checks if the dictionary exists at path.
// If not, it discovers the latest release from GitHub, downloads it, and decompresses it.
func EnsureDictionary(ctx context.Context, path string, logger *slog.Logger) error {
	return ensureFrom(ctx, ReleaseAPIURL, path, logger)
}

func ensureFrom(ctx context.Context, apiURL, path string, logger *slog.Logger) error {
	logger = logging.OrDiscard(logger)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	logger.Info("dictionary not found, downloading", "path", path)

	client := &http.Client{Timeout: 5 * time.Minute}
	downloadURL, err := latestReleaseAssetURL(ctx, client, apiURL)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}

	logger.Info("downloading dictionary", "url", downloadURL)
	if err := downloadAndExtract(ctx, client, downloadURL, path); err != nil {
		return err
	}
	logger.Info("dictionary ready", "path", path)
	return nil
}

func latestReleaseAssetURL(ctx context.Context, client *http.Client, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	// GitHub rejects API calls without a User-Agent.
	req.Header.Set("User-Agent", "tango-cli")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, "jmdict-eng-common") &&
			(strings.HasSuffix(asset.Name, ".json.tgz") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", ErrNoDictionaryAsset
}

// downloadAndExtract fetches a .json.tgz or .json.gz asset and writes the JSON
// to destPath. The file only appears at destPath once fully written.
func downloadAndExtract(ctx context.Context, client *http.Client, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	var src io.Reader = gzReader
	if strings.HasSuffix(url, ".tgz") {
		src, err = jsonFromTar(tar.NewReader(gzReader))
		if err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".jmdict-*.json")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}

func jsonFromTar(tr *tar.Reader) (io.Reader, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("no json file found in downloaded archive")
		}
		if err != nil {
			return nil, fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return tr, nil
		}
	}
}
