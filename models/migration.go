package models

import (
	"log"

	"github.com/castrometro/sgm-contabilidad/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Client{}, &Period{},
		&Account{}, &AccountNameTranslation{},
		&OpeningBalance{}, &Movement{},
		&ClassificationSet{}, &ClassificationOption{}, &AccountClassification{},
		&ClassificationException{},
		&DocType{}, &DocTypeException{},
		&Incidence{}, &IncidenceSnapshot{},
		&FinancialStatement{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
