package storage

import (
	"os"
	"standbot/internal/providers"
	"standbot/internal/storage/interfaces"

	json "github.com/goccy/go-json"
)

// FileManager writes JSON snapshots through a compressor, replacing the
// target file atomically.
type FileManager struct {
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile decodes a snapshot into v. A missing file is not an error and
// reports found=false.
func (f *FileManager) LoadFromFile(fileName string, v any) (bool, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(decompressed, v); err != nil {
		f.logger.Warnf(providers.TypeStorage, "Snapshot %s is not readable: %v", fileName, err)
		return false, err
	}
	return true, nil
}
