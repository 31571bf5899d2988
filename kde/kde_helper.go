package kde

import (
	"context"

	"github.com/uyouii/lossopt/model"
	"github.com/uyouii/lossopt/utils"
	"go.uber.org/zap"
)

// CalculateQuantiles summarizes the estimate at the given probabilities.
// Quantiles that fail are skipped and logged.
func CalculateQuantiles(ctx context.Context, k *KDEUnivariate, probs []float64) (res []model.QuantileValue) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if err := recover(); err != nil {
			logger.Error("CalculateQuantiles recover panic error!", zap.Any("err", err),
				zap.String("panic info", utils.GetPanicInfo()), zap.Int("sampleCnt", len(k.Endog)))
		}
	}()

	for _, p := range probs {
		quantile, err := k.Quantile(p)
		if err != nil {
			logger.Error("kde Quantile failed", zap.Error(err), zap.Float64("value", p))
			continue
		}
		res = append(res, *quantile)
	}
	return res
}
