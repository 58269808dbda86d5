package utils

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func readFile(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return data, nil
}

func writeFile(logger logrus.FieldLogger, path, what string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", what, err)
	}
	logger.WithField("action", "svotool_write").
		WithField("path", path).
		WithField("bytes", len(data)).
		Infof("%s written", what)
	return nil
}
