package engine

import (
	"fmt"
	"os"
)

// outputDirectoryChecks ensures the output directory exists
func outputDirectoryChecks(dir string) error {
	outputInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating output directory", "path", dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				Logger.Error("Failed to create output directory", "path", dir, "error", err)
				return err
			}
			return nil
		}
		Logger.Error("Error checking output directory", "path", dir, "error", err)
		return err
	}

	if !outputInfo.IsDir() {
		Logger.Error("Output path exists but is not a directory", "path", dir)
		return fmt.Errorf("output path is not a directory: %s", dir)
	}
	return nil
}
