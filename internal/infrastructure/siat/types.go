package siat

// Wire types for the tax service bridge. Field names follow the bridge's
// JSON contract, which is Spanish throughout.

// emitLineRequest is one invoice line on the wire
type emitLineRequest struct {
	IDProducto     int64  `json:"idProducto"`
	Cantidad       string `json:"cantidad"`
	Precio         string `json:"precio"`
	MontoDescuento string `json:"montoDescuento"`
}

// emitRequest is the emission payload
type emitRequest struct {
	IDPuntoVenta     int64             `json:"idPuntoVenta"`
	IDCliente        int64             `json:"idCliente"`
	CodigoMetodoPago int               `json:"codigoMetodoPago"`
	NumeroTarjeta    string            `json:"numeroTarjeta,omitempty"`
	Activo           bool              `json:"activo"`
	Detalle          []emitLineRequest `json:"detalle"`
}

// emitResponse is the bridge answer to an emission
type emitResponse struct {
	CodigoEstado  string `json:"codigoEstado"`
	CUF           string `json:"cuf"`
	NumeroFactura int64  `json:"numeroFactura"`
	URL           string `json:"url"`
	ID            int64  `json:"id"`
	Mensaje       string `json:"mensaje"`
}

// voidRequest cancels or reverses an invoice
type voidRequest struct {
	ID           int64 `json:"id"`
	CodigoMotivo int   `json:"codigoMotivo,omitempty"`
}

// stateResponse carries only the confirmation state code
type stateResponse struct {
	CodigoEstado string `json:"codigoEstado"`
	Mensaje      string `json:"mensaje"`
}

// probeResponse is the connectivity probe answer
type probeResponse struct {
	Mensaje string `json:"mensaje"`
}

// openEventRequest registers a significant event
type openEventRequest struct {
	IDPuntoVenta    int64  `json:"idPuntoVenta"`
	CodigoEvento    int    `json:"codigoEvento"`
	Descripcion     string `json:"descripcion"`
	FechaHoraInicio string `json:"fechaHoraInicio,omitempty"`
	FechaHoraFin    string `json:"fechaHoraFin,omitempty"`
}

// openEventResponse returns the remote event id
type openEventResponse struct {
	IDEvento     int64  `json:"idEvento"`
	CodigoEstado string `json:"codigoEstado"`
	Mensaje      string `json:"mensaje"`
}

// packageResponse reports a contingency package submission
type packageResponse struct {
	CodigoEstado     string `json:"codigoEstado"`
	CantidadFacturas int    `json:"cantidadFacturas"`
	Mensaje          string `json:"mensaje"`
}

// referenceRow is one reference catalog row
type referenceRow struct {
	ID                 int64  `json:"id"`
	CodigoClasificador string `json:"codigoClasificador"`
	Descripcion        string `json:"descripcion"`
}

// clientPayload mirrors a customer record
type clientPayload struct {
	ID                       int64  `json:"id,omitempty"`
	RazonSocial              string `json:"razonSocial"`
	IDTipoDocumentoIdentidad int64  `json:"idTipoDocumentoIdentidad,omitempty"`
	NumeroDocumento          string `json:"numeroDocumento"`
	Complemento              string `json:"complemento,omitempty"`
	Email                    string `json:"email,omitempty"`
}

// itemPayload mirrors a product record
type itemPayload struct {
	ID                int64  `json:"id,omitempty"`
	Codigo            string `json:"codigo"`
	Descripcion       string `json:"descripcion"`
	PrecioUnitario    string `json:"precioUnitario"`
	IDUnidadMedida    int64  `json:"idUnidadMedida"`
	CodigoActividad   string `json:"codigoActividad,omitempty"`
	CodigoProductoSin int64  `json:"codigoProductoSin,omitempty"`
}

// createdResponse is the generic creation answer carrying the new id
type createdResponse struct {
	ID      int64  `json:"id"`
	Mensaje string `json:"mensaje"`
}

// pointOfSalePayload registers a point of sale
type pointOfSalePayload struct {
	Nombre               string `json:"nombre"`
	CodigoTipoPuntoVenta int    `json:"codigoTipoPuntoVenta"`
	IDSucursal           int64  `json:"idSucursal"`
}

// pointOfSaleResponse confirms a registration and carries the assigned code
type pointOfSaleResponse struct {
	Transaccion      bool   `json:"transaccion"`
	CodigoPuntoVenta int64  `json:"codigoPuntoVenta"`
	Mensaje          string `json:"mensaje"`
}

// dailyCodeResponse is a freshly granted CUFD
type dailyCodeResponse struct {
	Estado        bool   `json:"estado"`
	Codigo        string `json:"codigo"`
	CodigoControl string `json:"codigoControl"`
	Direccion     string `json:"direccion"`
	FechaCreacion string `json:"fechaCreacion"`
	FechaVigencia string `json:"fechaVigencia"`
	MensajeError  string `json:"mensajeError"`
}

// systemCodeRow is one CUIS registration with its granting location nested
type systemCodeRow struct {
	ID            int64            `json:"id"`
	Codigo        string           `json:"codigo"`
	FechaVigencia string           `json:"fechaVigencia"`
	PuntoVenta    systemCodeOutlet `json:"puntoVenta"`
}

type systemCodeOutlet struct {
	ID       int64            `json:"id"`
	Sucursal systemCodeBranch `json:"sucursal"`
}

type systemCodeBranch struct {
	ID int64 `json:"id"`
}
