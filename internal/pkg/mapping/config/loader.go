package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
)

const (
	FactoryDir = "factory"
	UserDir    = "user"
)

var log = logger.GetLogger()

var ErrMappingNotFound = errors.New("mapping not found")

type ConfigMap map[string]MappingConfig

type MappingConfigs struct {
	Factory ConfigMap
	User    ConfigMap
}

// FindMapping looks up mapping by its file name, user mappings shadow factory ones.
func (c *MappingConfigs) FindMapping(name string) (MappingConfig, error) {
	name = strings.ToLower(name)

	cfg, ok := c.User[name]
	if ok {
		return cfg, nil
	}
	cfg, ok = c.Factory[name]
	if ok {
		return cfg, nil
	}
	return MappingConfig{}, fmt.Errorf("%w: %s", ErrMappingNotFound, name)
}

// Names lists every loadable mapping, user mappings first.
func (c *MappingConfigs) Names() []string {
	names := sortedKeys(c.User)
	for _, name := range sortedKeys(c.Factory) {
		if _, ok := c.User[name]; ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

type dirInfo struct {
	root       string
	configMap  ConfigMap
	identifier string
}

// LoadMappings reads every mapping file from factory and user subdirectories of root.
// Broken files are reported and skipped, a missing user directory is not an error.
func LoadMappings(root string) (MappingConfigs, error) {
	cfg := MappingConfigs{
		Factory: make(ConfigMap),
		User:    make(ConfigMap),
	}

	for _, pair := range []dirInfo{
		{filepath.Join(root, FactoryDir), cfg.Factory, FactoryDir},
		{filepath.Join(root, UserDir), cfg.User, UserDir},
	} {
		_, err := os.Stat(pair.root)
		if errors.Is(err, os.ErrNotExist) && pair.identifier == UserDir {
			continue
		}

		err = loadDirectory(pair.root, pair.identifier, pair.configMap)
		if err != nil {
			return cfg, fmt.Errorf("loading \"%s\" directory failed: %w", pair.root, err)
		}
	}
	return cfg, nil
}

func loadDirectory(root, configType string, configMap ConfigMap) (err error) {
	err = filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		name := strings.ToLower(info.Name())
		if _, err := FormatFromPath(name); err != nil {
			return nil
		}

		mappingCfg, err := readMappingConfig(path, configType)
		if err != nil {
			log.Info(fmt.Sprintf("mapping %s (%s) load failed: %s", name, configType, err), logger.Warning)
			return nil
		}
		configMap[name] = mappingCfg

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk failed: %w", err)
	}
	return nil
}
