package utils

import (
	"context"

	"github.com/castrometro/sgm-contabilidad/appctx"
)

var (
	ContextKeyClientId      = appctx.ContextKeyClientId
	ContextKeyPeriodId      = appctx.ContextKeyPeriodId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetClientIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyClientId)
}

func GetPeriodIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyPeriodId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetClientIdInContext(ctx context.Context, clientId int) context.Context {
	return appctx.Set(ctx, ContextKeyClientId, clientId)
}

func SetPeriodIdInContext(ctx context.Context, periodId int) context.Context {
	return appctx.Set(ctx, ContextKeyPeriodId, periodId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
