package siat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the bridge (10MB)
const maxResponseSize = 10 * 1024 * 1024

// timeLayout is the timestamp format the event routes expect
const timeLayout = "2006-01-02 15:04:05"

// isoTimeLayout is the timestamp format the code routes return
const isoTimeLayout = "2006-01-02T15:04:05"

// confirmation state codes the tax authority returns
const (
	stateCancelled = "905"
	stateReversed  = "907"
)

// probeOKMessage is the exact probe answer that counts as healthy
const probeOKMessage = "conexion exitosa"

// Service implements integration.TaxAuthorityService against the HTTP bridge
type Service struct {
	httpClient *http.Client
}

// NewService creates a bridge service with timeouts from config
func NewService(cfg config.BridgeConfig) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// VerifyCommunication probes the bridge connectivity endpoint
func (s *Service) VerifyCommunication(ctx context.Context, ep *integration.ServiceEndpoint) error {
	body, err := s.doGet(ctx, ep, "/contingencia/verificar-comunicacion", nil)
	if err != nil {
		return err
	}

	var resp probeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.Mensaje != probeOKMessage {
		return fmt.Errorf("%w: probe answered %q", integration.ErrServiceUnavailable, resp.Mensaje)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Invoice Operations
// ---------------------------------------------------------------------------

// EmitInvoice emits one invoice. The path depends on the modality the
// endpoint serves: the electronic and computerized bridges expose separate
// emission routes with the same payload.
func (s *Service) EmitInvoice(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.EmitRequest) (*integration.EmitResult, error) {
	payload := emitRequest{
		IDPuntoVenta:     req.PointOfSaleRemoteID,
		IDCliente:        req.CustomerRemoteID,
		CodigoMetodoPago: req.PaymentMethodCode,
		NumeroTarjeta:    req.CardNumber,
		Activo:           req.Online,
		Detalle:          make([]emitLineRequest, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		payload.Detalle = append(payload.Detalle, emitLineRequest{
			IDProducto:     line.ItemRemoteID,
			Cantidad:       line.Quantity.String(),
			Precio:         line.UnitPrice.StringFixed(2),
			MontoDescuento: line.Discount.StringFixed(2),
		})
	}

	path := "/factura/emitir"
	if ep.Kind == integration.EndpointKindComputerized {
		path = "/factura/emitir-computarizada"
	}

	body, err := s.doPost(ctx, ep, path, payload)
	if err != nil {
		return nil, err
	}

	var resp emitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.CUF == "" {
		return nil, fmt.Errorf("%w: emission returned no unique code: %s", integration.ErrInvalidResponse, resp.Mensaje)
	}

	return &integration.EmitResult{
		StateCode:  resp.CodigoEstado,
		UniqueCode: resp.CUF,
		Number:     resp.NumeroFactura,
		ViewURL:    resp.URL,
	}, nil
}

// VoidInvoice cancels an emitted invoice. The tax authority confirms a
// cancellation with state code 905; anything else is a rejection.
func (s *Service) VoidInvoice(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.VoidRequest) error {
	return s.confirmStateCode(ctx, ep, "/factura/anular", req, stateCancelled)
}

// ReverseVoid undoes a cancellation, confirmed with state code 907
func (s *Service) ReverseVoid(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.VoidRequest) error {
	return s.confirmStateCode(ctx, ep, "/factura/reversion-anular", req, stateReversed)
}

func (s *Service) confirmStateCode(ctx context.Context, ep *integration.ServiceEndpoint, path string, req *integration.VoidRequest, want string) error {
	payload := voidRequest{
		ID:           req.InvoiceRemoteID,
		CodigoMotivo: req.ReasonCode,
	}

	body, err := s.doPost(ctx, ep, path, payload)
	if err != nil {
		return err
	}

	var resp stateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.CodigoEstado != want {
		return fmt.Errorf("%w: expected state %s, got %q (%s)", integration.ErrRequestFailed, want, resp.CodigoEstado, resp.Mensaje)
	}
	return nil
}

// DownloadDocument fetches the rendered PDF for an emitted invoice
func (s *Service) DownloadDocument(ctx context.Context, ep *integration.ServiceEndpoint, dailyCode string, number int64) ([]byte, error) {
	query := url.Values{}
	query.Set("cufd", dailyCode)
	query.Set("numeroFactura", strconv.FormatInt(number, 10))

	return s.doGet(ctx, ep, "/pdf/download", query)
}

// ---------------------------------------------------------------------------
// Contingency Operations
// ---------------------------------------------------------------------------

// OpenEvent registers an open-ended significant event
func (s *Service) OpenEvent(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.OpenEventRequest) (int64, error) {
	payload := openEventRequest{
		IDPuntoVenta: req.PointOfSaleRemoteID,
		CodigoEvento: int(req.Reason),
		Descripcion:  req.Description,
	}
	return s.openEvent(ctx, ep, "/contingencia/registrar-inicio-evento", payload)
}

// OpenClosedEvent registers an event whose window already ended. The bridge
// has a dedicated route for these because the tax authority wants the full
// range in one call.
func (s *Service) OpenClosedEvent(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.OpenEventRequest) (int64, error) {
	if req.EndedAt == nil {
		return 0, integration.ErrEventTimeRangeMissing
	}
	payload := openEventRequest{
		IDPuntoVenta:    req.PointOfSaleRemoteID,
		CodigoEvento:    int(req.Reason),
		Descripcion:     req.Description,
		FechaHoraInicio: req.StartedAt.Format(timeLayout),
		FechaHoraFin:    req.EndedAt.Format(timeLayout),
	}
	return s.openEvent(ctx, ep, "/contingencia/registrar-inicio-fin-evento", payload)
}

func (s *Service) openEvent(ctx context.Context, ep *integration.ServiceEndpoint, path string, payload openEventRequest) (int64, error) {
	body, err := s.doPost(ctx, ep, path, payload)
	if err != nil {
		return 0, err
	}

	var resp openEventResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.IDEvento == 0 {
		return 0, fmt.Errorf("%w: event registration returned no id: %s", integration.ErrInvalidResponse, resp.Mensaje)
	}
	return resp.IDEvento, nil
}

// CloseEvent ends a previously registered significant event
func (s *Service) CloseEvent(ctx context.Context, ep *integration.ServiceEndpoint, remoteEventID int64) error {
	path := fmt.Sprintf("/contingencia/registrar-fin-evento/%d", remoteEventID)
	_, err := s.doPost(ctx, ep, path, nil)
	return err
}

// SubmitPackage sends the invoices queued during the event window
func (s *Service) SubmitPackage(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.PackageRequest) (*integration.PackageResult, error) {
	path := fmt.Sprintf("/factura/emitir-paquete/%d/%d/%d",
		req.PointOfSaleRemoteID, req.BranchRemoteID, req.EventRemoteID)

	body, err := s.doPost(ctx, ep, path, nil)
	if err != nil {
		return nil, err
	}

	var resp packageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	return &integration.PackageResult{
		StateCode: resp.CodigoEstado,
		Accepted:  resp.CantidadFacturas,
	}, nil
}

// ---------------------------------------------------------------------------
// Mirror Operations
// ---------------------------------------------------------------------------

// ListReference fetches one reference catalog by its path segment
func (s *Service) ListReference(ctx context.Context, ep *integration.ServiceEndpoint, kind string) ([]integration.ReferenceRow, error) {
	body, err := s.doGet(ctx, ep, "/parametro/"+kind, nil)
	if err != nil {
		return nil, err
	}

	var rows []referenceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}

	out := make([]integration.ReferenceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, integration.ReferenceRow{
			RemoteID:    row.ID,
			Code:        row.CodigoClasificador,
			Description: row.Descripcion,
		})
	}
	return out, nil
}

// ListClients fetches all customer records held by the tax service
func (s *Service) ListClients(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteClient, error) {
	body, err := s.doGet(ctx, ep, "/api/clientes", nil)
	if err != nil {
		return nil, err
	}

	var rows []clientPayload
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}

	out := make([]integration.RemoteClient, 0, len(rows))
	for _, row := range rows {
		out = append(out, integration.RemoteClient{
			RemoteID:       row.ID,
			Name:           row.RazonSocial,
			DocumentTypeID: row.IDTipoDocumentoIdentidad,
			DocumentNumber: row.NumeroDocumento,
			Complement:     row.Complemento,
			Email:          row.Email,
		})
	}
	return out, nil
}

// CreateClient mirrors a new customer and returns its remote ID
func (s *Service) CreateClient(ctx context.Context, ep *integration.ServiceEndpoint, client *integration.RemoteClient) (int64, error) {
	body, err := s.doPost(ctx, ep, "/api/clientes", clientToPayload(client))
	if err != nil {
		return 0, err
	}

	var resp createdResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.ID == 0 {
		return 0, fmt.Errorf("%w: client creation returned no id: %s", integration.ErrInvalidResponse, resp.Mensaje)
	}
	return resp.ID, nil
}

// UpdateClient mirrors customer changes
func (s *Service) UpdateClient(ctx context.Context, ep *integration.ServiceEndpoint, client *integration.RemoteClient) error {
	path := fmt.Sprintf("/api/clientes/%d", client.RemoteID)
	_, err := s.doPut(ctx, ep, path, clientToPayload(client))
	return err
}

// DeleteClient removes a mirrored customer
func (s *Service) DeleteClient(ctx context.Context, ep *integration.ServiceEndpoint, remoteID int64) error {
	path := fmt.Sprintf("/api/clientes/%d", remoteID)
	_, err := s.doRequest(ctx, ep, http.MethodDelete, path, nil, nil)
	return err
}

func clientToPayload(client *integration.RemoteClient) clientPayload {
	return clientPayload{
		RazonSocial:              client.Name,
		IDTipoDocumentoIdentidad: client.DocumentTypeID,
		NumeroDocumento:          client.DocumentNumber,
		Complemento:              client.Complement,
		Email:                    client.Email,
	}
}

// ListItems fetches all product records held by the tax service
func (s *Service) ListItems(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteItem, error) {
	body, err := s.doGet(ctx, ep, "/item/obtener-items", nil)
	if err != nil {
		return nil, err
	}

	var rows []itemPayload
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}

	out := make([]integration.RemoteItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, integration.RemoteItem{
			RemoteID:      row.ID,
			Code:          row.Codigo,
			Description:   row.Descripcion,
			UnitPrice:     parseDecimal(row.PrecioUnitario),
			MeasureUnitID: row.IDUnidadMedida,
			ActivityCode:  row.CodigoActividad,
			SinCode:       row.CodigoProductoSin,
		})
	}
	return out, nil
}

// CreateItem mirrors a new product and returns its remote ID
func (s *Service) CreateItem(ctx context.Context, ep *integration.ServiceEndpoint, item *integration.RemoteItem) (int64, error) {
	body, err := s.doPost(ctx, ep, "/item/crear-item", itemToPayload(item))
	if err != nil {
		return 0, err
	}

	var resp createdResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if resp.ID == 0 {
		return 0, fmt.Errorf("%w: item creation returned no id: %s", integration.ErrInvalidResponse, resp.Mensaje)
	}
	return resp.ID, nil
}

// UpdateItem mirrors product changes
func (s *Service) UpdateItem(ctx context.Context, ep *integration.ServiceEndpoint, item *integration.RemoteItem) error {
	path := fmt.Sprintf("/item/actualizar-item/%d", item.RemoteID)
	_, err := s.doPut(ctx, ep, path, itemToPayload(item))
	return err
}

func itemToPayload(item *integration.RemoteItem) itemPayload {
	return itemPayload{
		Codigo:            item.Code,
		Descripcion:       item.Description,
		PrecioUnitario:    item.UnitPrice.StringFixed(2),
		IDUnidadMedida:    item.MeasureUnitID,
		CodigoActividad:   item.ActivityCode,
		CodigoProductoSin: item.SinCode,
	}
}

// ---------------------------------------------------------------------------
// Registration Operations
// ---------------------------------------------------------------------------

// RegisterPointOfSale registers a point of sale and returns its remote ID
func (s *Service) RegisterPointOfSale(ctx context.Context, ep *integration.ServiceEndpoint, pos *integration.RemotePointOfSale) (int64, error) {
	payload := pointOfSalePayload{
		Nombre:               pos.Name,
		CodigoTipoPuntoVenta: pos.TypeCode,
		IDSucursal:           pos.BranchRemoteID,
	}

	body, err := s.doPost(ctx, ep, "/operaciones/punto-venta/registrar", payload)
	if err != nil {
		return 0, err
	}

	var resp pointOfSaleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if !resp.Transaccion || resp.CodigoPuntoVenta == 0 {
		return 0, fmt.Errorf("%w: registration not confirmed: %s", integration.ErrRequestFailed, resp.Mensaje)
	}
	return resp.CodigoPuntoVenta, nil
}

// FetchDailyCode requests a fresh daily authorization code. The bridge
// route carries both the point of sale and the branch remote IDs.
func (s *Service) FetchDailyCode(ctx context.Context, ep *integration.ServiceEndpoint, posRemoteID, branchRemoteID int64) (*integration.RemoteDailyCode, error) {
	path := fmt.Sprintf("/codigos/obtener-cufd/%d/%d", posRemoteID, branchRemoteID)

	body, err := s.doPost(ctx, ep, path, nil)
	if err != nil {
		return nil, err
	}

	var resp dailyCodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}
	if !resp.Estado {
		return nil, fmt.Errorf("%w: daily code not granted: %s", integration.ErrRequestFailed, resp.MensajeError)
	}
	if resp.Codigo == "" {
		return nil, fmt.Errorf("%w: daily code response carried no code", integration.ErrInvalidResponse)
	}

	code := &integration.RemoteDailyCode{
		Code:        resp.Codigo,
		ControlCode: resp.CodigoControl,
		Address:     resp.Direccion,
	}
	if t, err := parseISOTime(resp.FechaCreacion); err == nil {
		code.ValidFrom = t
	}
	if t, err := parseISOTime(resp.FechaVigencia); err == nil {
		code.ValidTo = t
	}
	return code, nil
}

// ListSystemCodes fetches the active system authorization codes. Each row
// nests the point of sale and branch it was granted to.
func (s *Service) ListSystemCodes(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteSystemCode, error) {
	body, err := s.doGet(ctx, ep, "/codigos/cuis/activo/1", nil)
	if err != nil {
		return nil, err
	}

	var rows []systemCodeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrInvalidResponse, err)
	}

	out := make([]integration.RemoteSystemCode, 0, len(rows))
	for _, row := range rows {
		code := integration.RemoteSystemCode{
			Code:           row.Codigo,
			BranchRemoteID: row.PuntoVenta.Sucursal.ID,
		}
		if t, err := parseISOTime(row.FechaVigencia); err == nil {
			code.ValidTo = t
		}
		out = append(out, code)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// parseISOTime parses the ISO timestamps the code routes return, dropping
// the fractional seconds the bridge sometimes appends
func parseISOTime(value string) (time.Time, error) {
	if len(value) > len(isoTimeLayout) {
		value = value[:len(isoTimeLayout)]
	}
	return time.Parse(isoTimeLayout, value)
}

func (s *Service) doGet(ctx context.Context, ep *integration.ServiceEndpoint, path string, query url.Values) ([]byte, error) {
	return s.doRequest(ctx, ep, http.MethodGet, path, query, nil)
}

func (s *Service) doPost(ctx context.Context, ep *integration.ServiceEndpoint, path string, payload any) ([]byte, error) {
	return s.doRequest(ctx, ep, http.MethodPost, path, nil, payload)
}

func (s *Service) doPut(ctx context.Context, ep *integration.ServiceEndpoint, path string, payload any) ([]byte, error) {
	return s.doRequest(ctx, ep, http.MethodPut, path, nil, payload)
}

// doRequest performs one HTTP request against the bridge endpoint
func (s *Service) doRequest(ctx context.Context, ep *integration.ServiceEndpoint, method, path string, query url.Values, payload any) ([]byte, error) {
	target := ep.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("siat: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("siat: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ep.Token != "" {
		req.Header.Set("Authorization", "Token "+ep.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("siat: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", integration.ErrRequestFailed, resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

// parseDecimal parses a decimal string, returning zero on malformed input
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Ensure Service implements TaxAuthorityService interface
var _ integration.TaxAuthorityService = (*Service)(nil)
