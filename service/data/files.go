package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/config"
)

const synsetSuffix = "_synset.txt"

type filesDBService struct {
	CfgSvc  config.IService
	results io.WriteCloser
}

func NewFilesDB(cfgsvc config.IService) IService {
	svc := &filesDBService{
		CfgSvc: cfgsvc,
	}

	if path := cfgsvc.GetResultsLog(); path != "" {
		svc.results = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30,   // days
			Compress:   true, // compress old logs
		}
	}

	return svc
}

// SynsetPath is where the class names of a model live: <dir>/<model>_synset.txt.
func SynsetPath(dir, modelName string) string {
	return filepath.Join(dir, modelName+synsetSuffix)
}

func (svc *filesDBService) RetrieveClassNames(modelName string) ([]string, error) {
	path := SynsetPath(svc.CfgSvc.GetModelDir(), modelName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.GenError("data_class_names", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error reading class names")
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, model.GenError("data_class_names", model.KindResource, nil,
			map[string]interface{}{"path": path},
			"no class names in %s", path)
	}

	names := strings.Split(content, "\n")
	for i := range names {
		names[i] = strings.TrimRight(names[i], "\r")
	}
	return names, nil
}

func (svc *filesDBService) NewRunRecord(record model.RunRecord) error {
	if svc.results == nil {
		return nil
	}

	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling run record: %w", err)
	}

	if _, err := svc.results.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("error writing run record: %w", err)
	}
	return nil
}

func (svc *filesDBService) Close() error {
	if svc.results == nil {
		return nil
	}
	return svc.results.Close()
}
