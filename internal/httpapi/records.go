package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/garage"
	"github.com/gorilla/mux"
)

// recordForm 新建保养记录的表单。
type recordForm struct {
	VehicleID     string  `json:"vehicleId"`
	Date          string  `json:"date"`
	ServiceType   string  `json:"serviceType"`
	Description   string  `json:"description"`
	Cost          float64 `json:"cost"`
	Mileage       int     `json:"mileage"`
	ServiceCenter string  `json:"serviceCenter"`
	Notes         string  `json:"notes"`
}

func (f recordForm) validate() (garage.RecordInput, map[string]string) {
	fields := map[string]string{}

	if strings.TrimSpace(f.VehicleID) == "" {
		fields["vehicleId"] = "Vehicle is required"
	}
	if strings.TrimSpace(f.ServiceType) == "" {
		fields["serviceType"] = "Service type is required"
	}
	if strings.TrimSpace(f.Description) == "" {
		fields["description"] = "Description is required"
	}
	if strings.TrimSpace(f.ServiceCenter) == "" {
		fields["serviceCenter"] = "Service center is required"
	}
	if f.Cost < 0 {
		fields["cost"] = "Cost must be a positive number"
	}
	if f.Mileage < 0 {
		fields["mileage"] = "Mileage must be a positive number"
	}

	var date time.Time
	if strings.TrimSpace(f.Date) == "" {
		fields["date"] = "Date is required"
	} else {
		d, err := time.Parse(dateLayout, f.Date)
		if err != nil {
			fields["date"] = "Date must be YYYY-MM-DD"
		} else {
			date = d
		}
	}

	if len(fields) > 0 {
		return garage.RecordInput{}, fields
	}
	return garage.RecordInput{
		VehicleID:     f.VehicleID,
		Date:          date,
		ServiceType:   f.ServiceType,
		Description:   f.Description,
		Cost:          f.Cost,
		Mileage:       f.Mileage,
		ServiceCenter: f.ServiceCenter,
		Notes:         f.Notes,
	}, nil
}

type recordPatchForm struct {
	VehicleID     *string  `json:"vehicleId"`
	Date          *string  `json:"date"`
	ServiceType   *string  `json:"serviceType"`
	Description   *string  `json:"description"`
	Cost          *float64 `json:"cost"`
	Mileage       *int     `json:"mileage"`
	ServiceCenter *string  `json:"serviceCenter"`
	Notes         *string  `json:"notes"`
}

func (f recordPatchForm) validate() (garage.RecordPatch, map[string]string) {
	fields := map[string]string{}

	if f.VehicleID != nil && strings.TrimSpace(*f.VehicleID) == "" {
		fields["vehicleId"] = "Vehicle is required"
	}
	if f.ServiceType != nil && strings.TrimSpace(*f.ServiceType) == "" {
		fields["serviceType"] = "Service type is required"
	}
	if f.Description != nil && strings.TrimSpace(*f.Description) == "" {
		fields["description"] = "Description is required"
	}
	if f.ServiceCenter != nil && strings.TrimSpace(*f.ServiceCenter) == "" {
		fields["serviceCenter"] = "Service center is required"
	}
	if f.Cost != nil && *f.Cost < 0 {
		fields["cost"] = "Cost must be a positive number"
	}
	if f.Mileage != nil && *f.Mileage < 0 {
		fields["mileage"] = "Mileage must be a positive number"
	}

	patch := garage.RecordPatch{
		VehicleID:     f.VehicleID,
		ServiceType:   f.ServiceType,
		Description:   f.Description,
		Cost:          f.Cost,
		Mileage:       f.Mileage,
		ServiceCenter: f.ServiceCenter,
		Notes:         f.Notes,
	}
	if f.Date != nil {
		d, err := time.Parse(dateLayout, *f.Date)
		if err != nil {
			fields["date"] = "Date must be YYYY-MM-DD"
		} else {
			patch.Date = &d
		}
	}

	if len(fields) > 0 {
		return garage.RecordPatch{}, fields
	}
	return patch, nil
}

func (a *API) handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.ServiceRecords())
}

func (a *API) handleServiceTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, garage.ServiceTypes)
}

func (a *API) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var form recordForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, fields := form.validate()
	if fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	rec, err := a.store.AddServiceRecord(in)
	if errors.Is(err, garage.ErrVehicleNotFound) {
		// 指向不存在的车辆直接拒绝，不允许孤儿记录入库。
		writeFieldErrors(w, map[string]string{"vehicleId": "Vehicle does not exist"})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var form recordPatchForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, fields := form.validate()
	if fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	rec, err := a.store.UpdateServiceRecord(mux.Vars(r)["id"], patch)
	if errors.Is(err, garage.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "service record not found")
		return
	}
	if errors.Is(err, garage.ErrVehicleNotFound) {
		writeFieldErrors(w, map[string]string{"vehicleId": "Vehicle does not exist"})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteServiceRecord(mux.Vars(r)["id"])
	if errors.Is(err, garage.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "service record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
