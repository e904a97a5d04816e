package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/conversion"
)

// Sheet names within the ledger spreadsheet.
const (
	customerSheet = "CLIENTES"
	adsSheet      = "GOOGLE_ADS"
	mccSheet      = "MCC_CONVERSIONS"
)

// sheetRequest is the envelope the spreadsheet webhook accepts.
type sheetRequest struct {
	Sheet string      `json:"sheet"`
	Row   interface{} `json:"row"`
}

func postRow(ctx context.Context, client *http.Client, url, sheet string, row interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	body, err := json.Marshal(sheetRequest{Sheet: sheet, Row: row})
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func trackingValue(e *conversion.Event, key string) string {
	if v, ok := e.TrackingParameters[key]; ok && v != nil {
		return *v
	}
	return ""
}

// CustomerSheetSink appends one row per paid conversion to the customer
// ledger, including the delivery-proof fields.
type CustomerSheetSink struct {
	URL        string
	Project    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (s *CustomerSheetSink) Name() string { return "customer-sheet" }

type customerRow struct {
	Project           string  `json:"projeto"`
	TransactionID     string  `json:"transactionId"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	ConvertedValue    float64 `json:"valorConvertido"`
	Gclid             string  `json:"gclid"`
	Gbraid            string  `json:"gbraid"`
	Wbraid            string  `json:"wbraid"`
	IP                string  `json:"ip"`
	Country           string  `json:"pais"`
	City              string  `json:"cidade"`
	CreatedAt         string  `json:"createdAt"`
	PaidAt            string  `json:"paidAt"`
	ProductName       string  `json:"productName"`
	Gateway           string  `json:"gateway"`
	UtmSource         string  `json:"utm_source"`
	UtmCampaign       string  `json:"utm_campaign"`
	UtmMedium         string  `json:"utm_medium"`
	UtmContent        string  `json:"utm_content"`
	UtmTerm           string  `json:"utm_term"`
	Fbclid            string  `json:"fbclid"`
	Keyword           string  `json:"keyword"`
	Device            string  `json:"device"`
	Network           string  `json:"network"`
	GadSource         string  `json:"gad_source"`
	GadCampaignID     string  `json:"gad_campaignid"`
	Coupons           string  `json:"cupons"`
	CustomerName      string  `json:"nomeCliente"`
	Document          string  `json:"cpf"`
	DeliveredAt       string  `json:"dataEntrega"`
	DeliveredQuantity string  `json:"quantidadeEntregue"`
	DeliveryHash      string  `json:"deliveryHash"`
	PDFStatus         string  `json:"pdfStatus"`
}

func (s *CustomerSheetSink) Deliver(ctx context.Context, d *Delivery) error {
	if s.URL == "" || d.Event.Status != "paid" || d.Order == nil {
		return nil
	}
	ev, ord := d.Event, d.Order

	deliveredAt := ""
	if ev.ApprovedDate != nil {
		deliveredAt = *ev.ApprovedDate
	}
	quantity := ord.Product
	if quantity == "" {
		quantity = fmt.Sprintf("%.2f", float64(ev.Commission.TotalPriceInCents)/100)
	}
	email := conversion.NormalizeEmail(ord.Customer.Email)

	row := customerRow{
		Project:           s.Project,
		TransactionID:     ev.OrderID,
		Email:             ord.Customer.Email,
		Phone:             ord.Customer.Phone,
		ConvertedValue:    float64(ev.Commission.TotalPriceInCents) / 100,
		Gclid:             trackingValue(ev, "gclid"),
		Gbraid:            trackingValue(ev, "gbraid"),
		Wbraid:            trackingValue(ev, "wbraid"),
		IP:                ev.Customer.IP,
		Country:           "BR",
		City:              ord.City,
		CreatedAt:         ev.CreatedAt,
		PaidAt:            deliveredAt,
		ProductName:       ord.Product,
		Gateway:           ord.Gateway,
		UtmSource:         trackingValue(ev, "utm_source"),
		UtmCampaign:       trackingValue(ev, "utm_campaign"),
		UtmMedium:         trackingValue(ev, "utm_medium"),
		UtmContent:        trackingValue(ev, "utm_content"),
		UtmTerm:           trackingValue(ev, "utm_term"),
		Fbclid:            trackingValue(ev, "fbclid"),
		Keyword:           trackingValue(ev, "keyword"),
		Device:            trackingValue(ev, "device"),
		Network:           trackingValue(ev, "network"),
		GadSource:         trackingValue(ev, "gad_source"),
		GadCampaignID:     trackingValue(ev, "gad_campaignid"),
		Coupons:           ord.Coupons,
		CustomerName:      ev.Customer.Name,
		Document:          ord.Customer.Document,
		DeliveredAt:       deliveredAt,
		DeliveredQuantity: quantity,
		DeliveryHash:      conversion.DeliveryProofHash(ev.OrderID, email, deliveredAt, quantity),
		PDFStatus:         "PENDENTE",
	}
	return postRow(ctx, s.HTTPClient, s.URL, customerSheet, row)
}

// AdsSheetSink appends paid conversions to the Google Ads import sheet with
// hashed PII and the delivery-proof hash.
type AdsSheetSink struct {
	URL        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (s *AdsSheetSink) Name() string { return "ads-sheet" }

type adsRow struct {
	EventTime         string  `json:"eventTime"`
	Gclid             string  `json:"gclid"`
	Email             string  `json:"email"`
	PhoneNumber       string  `json:"phoneNumber"`
	HashedEmail       string  `json:"hashedEmail"`
	HashedPhoneNumber string  `json:"hashedPhoneNumber"`
	Gbraid            string  `json:"gbraid"`
	Wbraid            string  `json:"wbraid"`
	ConversionValue   float64 `json:"conversionValue"`
	CurrencyCode      string  `json:"currencyCode"`
	OrderID           string  `json:"orderId"`
	UserAgent         string  `json:"userAgent"`
	IPAddress         string  `json:"ipAddress"`
	SessionAttributes string  `json:"sessionAttributes"`
	DeliveredAt       string  `json:"dataEntrega"`
	DeliveredQuantity string  `json:"quantidadeEntregue"`
	DeliveryHash      string  `json:"deliveryHash"`
	PDFStatus         string  `json:"pdfStatus"`
}

func (s *AdsSheetSink) Deliver(ctx context.Context, d *Delivery) error {
	if s.URL == "" || d.Event.Status != "paid" || d.Order == nil {
		return nil
	}
	ev, ord := d.Event, d.Order

	eventTime := time.Now().UTC()
	if ev.ApprovedDate != nil {
		if t := conversion.ParseGatewayTime(*ev.ApprovedDate); !t.IsZero() {
			eventTime = t
		}
	}

	email := conversion.NormalizeEmail(ord.Customer.Email)
	phone := conversion.NormalizePhone(ord.Customer.Phone)

	// session_attributes carries the GAD parameters; empty fields omitted.
	session := map[string]string{}
	if v := trackingValue(ev, "gad_source"); v != "" {
		session["gad_source"] = v
	}
	if v := trackingValue(ev, "gad_campaignid"); v != "" {
		session["gad_campaignid"] = v
	}
	sessionAttrs := ""
	if len(session) > 0 {
		b, _ := json.Marshal(session)
		sessionAttrs = string(b)
	}

	deliveredAt := eventTime.Format(time.RFC3339)
	quantity := ord.Product
	if quantity == "" {
		quantity = fmt.Sprintf("%.2f", float64(ev.Commission.TotalPriceInCents)/100)
	}

	row := adsRow{
		EventTime:         eventTime.Format("2006-01-02 15:04:05") + "Z",
		Gclid:             trackingValue(ev, "gclid"),
		Email:             email,
		PhoneNumber:       phone,
		HashedEmail:       conversion.HashEmail(ord.Customer.Email),
		HashedPhoneNumber: conversion.HashPhone(ord.Customer.Phone),
		Gbraid:            trackingValue(ev, "gbraid"),
		Wbraid:            trackingValue(ev, "wbraid"),
		ConversionValue:   float64(ev.Commission.TotalPriceInCents) / 100,
		CurrencyCode:      "BRL",
		OrderID:           ev.OrderID,
		UserAgent:         ord.UserAgent,
		IPAddress:         ev.Customer.IP,
		SessionAttributes: sessionAttrs,
		DeliveredAt:       deliveredAt,
		DeliveredQuantity: quantity,
		DeliveryHash:      conversion.DeliveryProofHash(ev.OrderID, email, deliveredAt, quantity),
		PDFStatus:         "PENDENTE",
	}
	return postRow(ctx, s.HTTPClient, s.URL, adsSheet, row)
}

// MCCSheetSink appends paid conversions to the multi-account sheet. Rows are
// written only when the ctax attribution id identifies the target Google Ads
// account and hashed user data exists to match on.
type MCCSheetSink struct {
	URL        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (s *MCCSheetSink) Name() string { return "mcc-sheet" }

type mccRow struct {
	GoogleCustomerID    string  `json:"googleCustomerId"`
	ConversionName      string  `json:"conversionName"`
	ConversionEventTime string  `json:"conversionEventTime"`
	Gclid               string  `json:"gclid"`
	HashedEmail         string  `json:"hashedEmail"`
	HashedPhoneNumber   string  `json:"hashedPhoneNumber"`
	ConversionValue     float64 `json:"conversionValue"`
	CurrencyCode        string  `json:"currencyCode"`
	OrderID             string  `json:"orderId"`
}

func (s *MCCSheetSink) Deliver(ctx context.Context, d *Delivery) error {
	if s.URL == "" || d.Event.Status != "paid" || d.Order == nil {
		return nil
	}
	ev, ord := d.Event, d.Order

	ctax := ev.Ctax()
	emailHash := conversion.HashEmail(ord.Customer.Email)
	phoneHash := conversion.HashPhone(ord.Customer.Phone)
	if ctax == "" || (emailHash == "" && phoneHash == "") {
		if s.Logger != nil {
			s.Logger.Debug("mcc row skipped", zap.String("orderId", ev.OrderID), zap.Bool("hasCtax", ctax != ""))
		}
		return nil
	}

	eventTime := time.Now().UTC()
	if ev.ApprovedDate != nil {
		if t := conversion.ParseGatewayTime(*ev.ApprovedDate); !t.IsZero() {
			eventTime = t
		}
	}

	row := mccRow{
		GoogleCustomerID:    ctax,
		ConversionName:      "Compra_Finalizada",
		ConversionEventTime: eventTime.Format(time.RFC3339),
		Gclid:               trackingValue(ev, "gclid"),
		HashedEmail:         emailHash,
		HashedPhoneNumber:   phoneHash,
		ConversionValue:     float64(ev.Commission.TotalPriceInCents) / 100,
		CurrencyCode:        "BRL",
		OrderID:             ev.OrderID,
	}
	return postRow(ctx, s.HTTPClient, s.URL, mccSheet, row)
}
