package models

// DocType is one entry of the client's document-type catalog (factura,
// boleta, nota de crédito, ...). A movement whose doc-type code is absent
// from this catalog raises a tipo_doc_desconocido finding.
type DocType struct {
	ID          int    `gorm:"primary_key" json:"id"`
	ClientId    int    `gorm:"uniqueIndex:idx_doc_types_client_code;not null" json:"client_id"`
	Code        string `gorm:"uniqueIndex:idx_doc_types_client_code;size:20;not null" json:"code"`
	Description string `gorm:"size:200" json:"description"`
}

// DocTypeException suppresses document-type findings of one kind for one
// account code.
type DocTypeException struct {
	ID          int           `gorm:"primary_key" json:"id"`
	ClientId    int           `gorm:"uniqueIndex:idx_doc_type_exceptions;not null" json:"client_id"`
	Kind        IncidenceKind `gorm:"uniqueIndex:idx_doc_type_exceptions;size:40;not null" json:"kind"`
	AccountCode string        `gorm:"uniqueIndex:idx_doc_type_exceptions;size:50;not null" json:"account_code"`
}
