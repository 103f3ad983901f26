package catalog

import (
	"context"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// ReferenceKind identifies one of the tax authority reference catalogs the
// bridge mirrors locally
type ReferenceKind string

const (
	ReferenceDocumentTypes       ReferenceKind = "document-types"
	ReferencePaymentMethods      ReferenceKind = "payment-methods"
	ReferenceMeasureUnits        ReferenceKind = "measure-units"
	ReferenceActivities          ReferenceKind = "activities"
	ReferenceLegends             ReferenceKind = "legends"
	ReferenceCurrencies          ReferenceKind = "currencies"
	ReferenceCountries           ReferenceKind = "countries"
	ReferenceSectorDocuments     ReferenceKind = "sector-documents"
	ReferenceCancellationReasons ReferenceKind = "cancellation-reasons"
	ReferenceSignificantEvents   ReferenceKind = "significant-events"
	ReferencePointOfSaleTypes    ReferenceKind = "point-of-sale-types"
	ReferenceProductCodes        ReferenceKind = "product-codes"
)

// AllReferenceKinds lists every catalog the daily sync walks, in sync order
var AllReferenceKinds = []ReferenceKind{
	ReferenceDocumentTypes,
	ReferencePaymentMethods,
	ReferenceMeasureUnits,
	ReferenceActivities,
	ReferenceLegends,
	ReferenceCurrencies,
	ReferenceCountries,
	ReferenceSectorDocuments,
	ReferenceCancellationReasons,
	ReferenceSignificantEvents,
	ReferencePointOfSaleTypes,
	ReferenceProductCodes,
}

// IsValid returns true if the kind names a known catalog
func (k ReferenceKind) IsValid() bool {
	for _, known := range AllReferenceKinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the string representation of ReferenceKind
func (k ReferenceKind) String() string {
	return string(k)
}

// RemotePath returns the path segment the tax service uses for this catalog
func (k ReferenceKind) RemotePath() string {
	switch k {
	case ReferenceDocumentTypes:
		return "tipo-documento-identidad"
	case ReferencePaymentMethods:
		return "metodo-pago"
	case ReferenceMeasureUnits:
		return "unidad-medida"
	case ReferenceActivities:
		return "actividad"
	case ReferenceLegends:
		return "leyenda"
	case ReferenceCurrencies:
		return "moneda"
	case ReferenceCountries:
		return "pais"
	case ReferenceSectorDocuments:
		return "tipo-documento-sector"
	case ReferenceCancellationReasons:
		return "motivo-anulacion"
	case ReferenceSignificantEvents:
		return "evento-significativo"
	case ReferencePointOfSaleTypes:
		return "tipo-punto-venta"
	case ReferenceProductCodes:
		return "producto-sin"
	default:
		return ""
	}
}

// ReferenceEntry is one mirrored row of a tax authority reference catalog.
// RemoteID is the identity used to match rows across sync runs; local rows
// are never deleted when the remote drops one.
type ReferenceEntry struct {
	shared.BaseEntity
	Kind        ReferenceKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_reference_kind_remote,priority:1"`
	RemoteID    int64         `gorm:"not null;uniqueIndex:idx_reference_kind_remote,priority:2"`
	Code        string        `gorm:"type:varchar(50);index"`
	Description string        `gorm:"type:varchar(512);not null"`
}

// TableName returns the table name for GORM
func (ReferenceEntry) TableName() string {
	return "reference_entries"
}

// ReferenceRepository persists mirrored reference catalog rows
type ReferenceRepository interface {
	shared.Repository[ReferenceEntry]
	FindByKind(ctx context.Context, kind ReferenceKind) ([]ReferenceEntry, error)
	FindByKindAndRemoteID(ctx context.Context, kind ReferenceKind, remoteID int64) (*ReferenceEntry, error)
	// SaveBatch stores new entries in a single transaction so one sync run
	// lands atomically
	SaveBatch(ctx context.Context, entries []ReferenceEntry) error
}
