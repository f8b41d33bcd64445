package loader

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NewYAMLFile returns a Loader that decodes the YAML document at path into a
// fresh T on every load.
func NewYAMLFile[T any](path string) Func[T] {
	return func(context.Context) (T, error) {
		var v T
		data, err := os.ReadFile(path)
		if err != nil {
			return v, fmt.Errorf("doublebuffer: unable to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("doublebuffer: unable to decode %s: %w", path, err)
		}
		return v, nil
	}
}
