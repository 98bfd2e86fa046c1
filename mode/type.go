package mode

import (
	"log/slog"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/data"
	"github.com/khaledhikmat/vc-go/service/lgr"
)

func procRunRecord(datasvc data.IService, record model.RunRecord) {
	err := datasvc.NewRunRecord(record)
	if err != nil {
		lgr.Logger.Error(
			"failed to store run record",
			slog.String("run", record.Stats.RunID),
			slog.Any("error", err),
		)
	}
}
