package data

import "github.com/khaledhikmat/vc-go/model"

type IService interface {
	RetrieveClassNames(modelName string) ([]string, error)
	NewRunRecord(record model.RunRecord) error
	Close() error
}
