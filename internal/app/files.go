package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"keepsake/internal/keepsake"
)

// SealedExtension is appended to the name of encrypted export files.
const SealedExtension = ".age"

// ErrPassphraseRequired is returned by ImportFromFile when the file is
// encrypted and no passphrase source was given.
var ErrPassphraseRequired = errors.New("file is encrypted, passphrase required")

// ExportOptions returns the export options configured under [export].
func (a *App) ExportOptions() (keepsake.ExportOptions, error) {
	format, err := keepsake.ParseExportFormat(a.cfg.Export.Format)
	if err != nil {
		return keepsake.ExportOptions{}, fmt.Errorf("export config: %w", err)
	}
	return keepsake.ExportOptions{
		Format:     format,
		OmitPhotos: !a.cfg.Export.IncludePhotos,
		Indent:     !a.cfg.Export.Compact,
	}, nil
}

// ExportToFile exports with opts and writes the result to path. An empty path
// or an existing directory gets the generated export file name. With encrypt
// set the content is sealed and SealedExtension is appended. Returns the
// path written.
func (a *App) ExportToFile(path string, opts keepsake.ExportOptions, encrypt bool) (string, *keepsake.ExportResult, error) {
	res, err := a.manager.Export(opts)
	if err != nil {
		return "", nil, fmt.Errorf("exporting: %w", err)
	}

	if path == "" {
		path = res.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, res.Filename)
	}

	content := res.Content
	if encrypt {
		if !a.encryptor.IsConfigured() {
			return "", nil, errors.New("encryption keys not set up, run 'keepsake keys init'")
		}
		content, err = a.encryptor.Seal(content)
		if err != nil {
			return "", nil, fmt.Errorf("encrypting export: %w", err)
		}
		if filepath.Ext(path) != SealedExtension {
			path += SealedExtension
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", nil, fmt.Errorf("writing export: %w", err)
	}
	a.logger.Info("export written",
		"path", path,
		"format", string(res.Format),
		"size", len(content),
		"encrypted", encrypt,
	)
	return path, res, nil
}

// ImportFromFile reads an export file and imports it with opts. Encrypted
// files are detected by content; passphrase is called only for them and may
// be nil when the caller cannot prompt.
func (a *App) ImportFromFile(path string, opts keepsake.ImportOptions, passphrase func() (string, error)) (*keepsake.ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	if a.encryptor.IsSealed(raw) {
		if passphrase == nil {
			return nil, ErrPassphraseRequired
		}
		pass, err := passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		opener, err := a.encryptor.Unlock(pass)
		if err != nil {
			return nil, fmt.Errorf("unlocking key: %w", err)
		}
		raw, err = opener.Open(raw)
		if err != nil {
			return nil, fmt.Errorf("decrypting import file: %w", err)
		}
	}

	if opts.Mode() != keepsake.ImportSkip {
		a.MarkMutating(path)
	}
	res, err := a.manager.ImportBytes(raw, opts)
	if err != nil {
		return nil, err
	}
	a.logger.Info("import file applied", "path", path, "mode", opts.Mode().String())
	return res, nil
}
