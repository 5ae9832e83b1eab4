package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquirePeriodPostingLock serializes period writes across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so acquire and release must run on the
// pinned connection that carries the write transaction, and release only after
// that transaction has committed.
func AcquirePeriodPostingLock(tx *gorm.DB, clientId int, periodId int) error {
	lockName := fmt.Sprintf("ingesta:%d:%d", clientId, periodId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for client_id=%d period_id=%d", clientId, periodId)
	}
	return nil
}

func ReleasePeriodPostingLock(tx *gorm.DB, clientId int, periodId int) {
	lockName := fmt.Sprintf("ingesta:%d:%d", clientId, periodId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
