package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/garage"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

// vehicleForm 新建车辆的表单。日期用 "2006-01-02" 字符串提交。
type vehicleForm struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	VIN          string `json:"vin"`
	Color        string `json:"color"`
	Image        string `json:"image"`

	NextServiceDate    string `json:"nextServiceDate"`
	NextServiceMileage *int   `json:"nextServiceMileage"`
	CurrentMileage     *int   `json:"currentMileage"`
}

// validate 逐字段校验；通过时返回规范化入参。校验失败不会触达 Store。
func (f vehicleForm) validate(now time.Time) (garage.VehicleInput, map[string]string) {
	fields := map[string]string{}

	if strings.TrimSpace(f.Make) == "" {
		fields["make"] = "Make is required"
	}
	if strings.TrimSpace(f.Model) == "" {
		fields["model"] = "Model is required"
	}
	if strings.TrimSpace(f.LicensePlate) == "" {
		fields["licensePlate"] = "License plate is required"
	}
	maxYear := now.Year() + 1
	if f.Year < 1900 {
		fields["year"] = "Year must be 1900 or later"
	} else if f.Year > maxYear {
		fields["year"] = "Year cannot be later than next year"
	}
	if f.CurrentMileage != nil && *f.CurrentMileage < 0 {
		fields["currentMileage"] = "Mileage must be a positive number"
	}
	if f.NextServiceMileage != nil && *f.NextServiceMileage < 0 {
		fields["nextServiceMileage"] = "Mileage must be a positive number"
	}

	in := garage.VehicleInput{
		Make:               f.Make,
		Model:              f.Model,
		Year:               f.Year,
		LicensePlate:       f.LicensePlate,
		VIN:                f.VIN,
		Color:              f.Color,
		Image:              f.Image,
		NextServiceMileage: f.NextServiceMileage,
		CurrentMileage:     f.CurrentMileage,
	}
	if strings.TrimSpace(f.NextServiceDate) != "" {
		d, err := time.Parse(dateLayout, f.NextServiceDate)
		if err != nil {
			fields["nextServiceDate"] = "Date must be YYYY-MM-DD"
		} else {
			in.NextServiceDate = &d
		}
	}

	if len(fields) > 0 {
		return garage.VehicleInput{}, fields
	}
	return in, nil
}

// vehiclePatchForm 部分更新：缺省字段不改动。
type vehiclePatchForm struct {
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	LicensePlate *string `json:"licensePlate"`
	VIN          *string `json:"vin"`
	Color        *string `json:"color"`
	Image        *string `json:"image"`

	NextServiceDate    *string `json:"nextServiceDate"`
	NextServiceMileage *int    `json:"nextServiceMileage"`
	CurrentMileage     *int    `json:"currentMileage"`
}

func (f vehiclePatchForm) validate(now time.Time) (garage.VehiclePatch, map[string]string) {
	fields := map[string]string{}

	if f.Make != nil && strings.TrimSpace(*f.Make) == "" {
		fields["make"] = "Make is required"
	}
	if f.Model != nil && strings.TrimSpace(*f.Model) == "" {
		fields["model"] = "Model is required"
	}
	if f.LicensePlate != nil && strings.TrimSpace(*f.LicensePlate) == "" {
		fields["licensePlate"] = "License plate is required"
	}
	if f.Year != nil {
		if *f.Year < 1900 {
			fields["year"] = "Year must be 1900 or later"
		} else if *f.Year > now.Year()+1 {
			fields["year"] = "Year cannot be later than next year"
		}
	}
	if f.CurrentMileage != nil && *f.CurrentMileage < 0 {
		fields["currentMileage"] = "Mileage must be a positive number"
	}
	if f.NextServiceMileage != nil && *f.NextServiceMileage < 0 {
		fields["nextServiceMileage"] = "Mileage must be a positive number"
	}

	patch := garage.VehiclePatch{
		Make:               f.Make,
		Model:              f.Model,
		Year:               f.Year,
		LicensePlate:       f.LicensePlate,
		VIN:                f.VIN,
		Color:              f.Color,
		Image:              f.Image,
		NextServiceMileage: f.NextServiceMileage,
		CurrentMileage:     f.CurrentMileage,
	}
	// 空串表示取消排期；字段缺省才是“不变”。
	if f.NextServiceDate != nil {
		if strings.TrimSpace(*f.NextServiceDate) == "" {
			patch.ClearNextServiceDate = true
		} else if d, err := time.Parse(dateLayout, *f.NextServiceDate); err != nil {
			fields["nextServiceDate"] = "Date must be YYYY-MM-DD"
		} else {
			patch.NextServiceDate = &d
		}
	}

	if len(fields) > 0 {
		return garage.VehiclePatch{}, fields
	}
	return patch, nil
}

// vehicleView 列表/详情里带上派生状态，余下展示字段原样透出。
type vehicleView struct {
	garage.Vehicle
	Status   garage.Status `json:"status"`
	Progress *int          `json:"progressToNextService,omitempty"`
}

func vehicleViewOf(v garage.Vehicle, now time.Time) vehicleView {
	view := vehicleView{Vehicle: v, Status: garage.StatusFor(v, now)}
	if p, ok := garage.ProgressToNextService(v); ok {
		view.Progress = &p
	}
	return view
}

func (a *API) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	vehicles := a.store.Vehicles()
	out := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, vehicleViewOf(v, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAddVehicle(w http.ResponseWriter, r *http.Request) {
	var form vehicleForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := a.now()
	in, fields := form.validate(now)
	if fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	v, err := a.store.AddVehicle(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, vehicleViewOf(v, now))
}

func (a *API) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := a.store.VehicleByID(mux.Vars(r)["id"])
	if errors.Is(err, garage.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicleViewOf(v, a.now()))
}

func (a *API) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var form vehiclePatchForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := a.now()
	patch, fields := form.validate(now)
	if fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	v, err := a.store.UpdateVehicle(mux.Vars(r)["id"], patch)
	if errors.Is(err, garage.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vehicleViewOf(v, now))
}

func (a *API) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteVehicle(mux.Vars(r)["id"])
	if errors.Is(err, garage.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleVehicleRecords(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := a.store.VehicleByID(id); errors.Is(err, garage.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, a.store.RecordsForVehicle(id))
}

// handleVehicleStatus 单辆车的派生视图：状态、里程进度、最近一次保养。
func (a *API) handleVehicleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, err := a.store.VehicleByID(id)
	if errors.Is(err, garage.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	now := a.now()
	resp := struct {
		Status        garage.Status         `json:"status"`
		Progress      *int                  `json:"progressToNextService,omitempty"`
		RecentService *garage.ServiceRecord `json:"recentService,omitempty"`
	}{Status: garage.StatusFor(v, now)}

	if p, ok := garage.ProgressToNextService(v); ok {
		resp.Progress = &p
	}
	if latest, ok := garage.MostRecentService(a.store.RecordsForVehicle(id)); ok {
		resp.RecentService = &latest
	}
	writeJSON(w, http.StatusOK, resp)
}
