package garage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/GarageDrive/GarageDrive/internal/common/logger"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrRecordNotFound     = errors.New("service record not found")
)

// DemoAccount 演示账号配置。登录只接受这一组凭证（无真实鉴权后端）。
type DemoAccount struct {
	Name     string
	Email    string
	Password string
}

// Store 单会话的内存领域存储：车辆、保养记录、当前用户与显示偏好。
// 登录/注册时装载示例数据，登出即整体丢弃（无持久化，属已知行为）。
// 所有集合用切片承载，保持插入顺序以稳定展示。
type Store struct {
	mu sync.RWMutex

	user          *User
	authenticated bool
	darkMode      bool

	vehicles []Vehicle
	records  []ServiceRecord
	reminder ReminderSettings

	demo         DemoAccount
	demoSalt     string
	demoPassHash string

	log logger.Logger
}

// NewStore 创建空 Store。demo 凭证在这里做一次加盐哈希，登录走统一的校验路径。
func NewStore(demo DemoAccount, log logger.Logger) (*Store, error) {
	if strings.TrimSpace(demo.Email) == "" || demo.Password == "" {
		return nil, fmt.Errorf("demo account email/password required")
	}
	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(demo.Password, salt)
	if err != nil {
		return nil, err
	}
	return &Store{
		demo:         demo,
		demoSalt:     salt,
		demoPassHash: hash,
		reminder:     defaultReminderSettings(),
		log:          log,
	}, nil
}

// Login 校验演示凭证。成功后写入用户、置位会话并装载示例数据；
// 失败统一返回 ErrInvalidCredentials（不区分邮箱错还是密码错），状态不变。
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if email != strings.ToLower(s.demo.Email) || !VerifyPassword(password, s.demoSalt, s.demoPassHash) {
		if s.log != nil {
			s.log.WithField("email", email).Warn("login rejected")
		}
		return nil, ErrInvalidCredentials
	}

	u := &User{
		ID:    "user-" + uuid.NewString(),
		Name:  s.demo.Name,
		Email: s.demo.Email,
	}
	s.user = u
	s.authenticated = true
	s.seedLocked()

	if s.log != nil {
		s.log.WithField("user_id", u.ID).Info("login ok")
	}
	out := *u
	return &out, nil
}

// Signup 演示模式注册：任意非空 name/email/password 都成功，直接建立会话。
func (s *Store) Signup(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name/email/password required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &User{
		ID:    "user-" + uuid.NewString(),
		Name:  name,
		Email: email,
	}
	s.user = u
	s.authenticated = true
	s.seedLocked()

	if s.log != nil {
		s.log.WithField("user_id", u.ID).Info("signup ok")
	}
	out := *u
	return &out, nil
}

// Logout 清空会话与全部内存集合。示例数据下次登录会重新装载。
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.authenticated = false
	s.vehicles = nil
	s.records = nil
	s.reminder = defaultReminderSettings()
}

// IsAuthenticated 当前是否存在已登录会话。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// User 返回当前用户的副本。
func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// UpdateProfile 更新当前用户的基本资料（设置页）。
func (s *Store) UpdateProfile(name, email string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, ErrNotAuthenticated
	}
	if name != "" {
		s.user.Name = name
	}
	if email != "" {
		s.user.Email = email
	}
	return *s.user, nil
}

// ToggleDarkMode 翻转深色模式开关，返回新值。仅影响展示层。
func (s *Store) ToggleDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = !s.darkMode
	return s.darkMode
}

func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// ReminderSettings 返回提醒偏好副本。
func (s *Store) ReminderSettings() ReminderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reminder
}

// UpdateReminderSettings 覆盖提醒偏好。AdvanceNoticeDays 非法时回退默认值。
func (s *Store) UpdateReminderSettings(rs ReminderSettings) ReminderSettings {
	if rs.AdvanceNoticeDays <= 0 {
		rs.AdvanceNoticeDays = defaultReminderSettings().AdvanceNoticeDays
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminder = rs
	return s.reminder
}

// Vehicles 返回车辆列表副本（保持插入顺序）。
func (s *Store) Vehicles() []Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out
}

// VehicleByID 按 id 查车。
func (s *Store) VehicleByID(id string) (Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return Vehicle{}, ErrVehicleNotFound
}

// AddVehicle 以新 id 插入车辆。
func (s *Store) AddVehicle(in VehicleInput) (Vehicle, error) {
	v := Vehicle{
		ID:                 "vehicle-" + uuid.NewString(),
		Make:               strings.TrimSpace(in.Make),
		Model:              strings.TrimSpace(in.Model),
		Year:               in.Year,
		LicensePlate:       strings.TrimSpace(in.LicensePlate),
		VIN:                strings.TrimSpace(in.VIN),
		Color:              strings.TrimSpace(in.Color),
		Image:              strings.TrimSpace(in.Image),
		NextServiceDate:    in.NextServiceDate,
		NextServiceMileage: in.NextServiceMileage,
		CurrentMileage:     in.CurrentMileage,
	}
	if v.Make == "" || v.Model == "" || v.LicensePlate == "" {
		return Vehicle{}, fmt.Errorf("make/model/licensePlate required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append(s.vehicles, v)
	return v, nil
}

// UpdateVehicle 浅合并部分字段：patch 里非 nil 的字段生效。
func (s *Store) UpdateVehicle(id string, patch VehiclePatch) (Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.vehicles {
		if s.vehicles[i].ID != id {
			continue
		}
		v := &s.vehicles[i]
		if patch.Make != nil {
			v.Make = strings.TrimSpace(*patch.Make)
		}
		if patch.Model != nil {
			v.Model = strings.TrimSpace(*patch.Model)
		}
		if patch.Year != nil {
			v.Year = *patch.Year
		}
		if patch.LicensePlate != nil {
			v.LicensePlate = strings.TrimSpace(*patch.LicensePlate)
		}
		if patch.VIN != nil {
			v.VIN = strings.TrimSpace(*patch.VIN)
		}
		if patch.Color != nil {
			v.Color = strings.TrimSpace(*patch.Color)
		}
		if patch.Image != nil {
			v.Image = strings.TrimSpace(*patch.Image)
		}
		if patch.ClearNextServiceDate {
			v.NextServiceDate = nil
		} else if patch.NextServiceDate != nil {
			d := *patch.NextServiceDate
			v.NextServiceDate = &d
		}
		if patch.NextServiceMileage != nil {
			m := *patch.NextServiceMileage
			v.NextServiceMileage = &m
		}
		if patch.CurrentMileage != nil {
			m := *patch.CurrentMileage
			v.CurrentMileage = &m
		}
		return *v, nil
	}
	return Vehicle{}, ErrVehicleNotFound
}

// DeleteVehicle 删除车辆，并在同一临界区内级联删除其全部保养记录，
// 保证对调用方原子：任何时刻都不会出现指向不存在车辆的记录。
func (s *Store) DeleteVehicle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.vehicles {
		if s.vehicles[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrVehicleNotFound
	}
	s.vehicles = append(s.vehicles[:idx], s.vehicles[idx+1:]...)

	kept := s.records[:0]
	for _, r := range s.records {
		if r.VehicleID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// ServiceRecords 返回全部保养记录副本。
func (s *Store) ServiceRecords() []ServiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ServiceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// RecordsForVehicle 某辆车的保养记录。
func (s *Store) RecordsForVehicle(vehicleID string) []ServiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ServiceRecord, 0)
	for _, r := range s.records {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	return out
}

// AddServiceRecord 新增保养记录。vehicleId 必须指向已存在的车辆，否则拒绝，
// 避免产生孤儿记录。
func (s *Store) AddServiceRecord(in RecordInput) (ServiceRecord, error) {
	r := ServiceRecord{
		ID:            "service-" + uuid.NewString(),
		VehicleID:     strings.TrimSpace(in.VehicleID),
		Date:          in.Date,
		ServiceType:   strings.TrimSpace(in.ServiceType),
		Description:   strings.TrimSpace(in.Description),
		Cost:          in.Cost,
		Mileage:       in.Mileage,
		ServiceCenter: strings.TrimSpace(in.ServiceCenter),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if r.VehicleID == "" || r.ServiceType == "" || r.Description == "" || r.ServiceCenter == "" {
		return ServiceRecord{}, fmt.Errorf("vehicleId/serviceType/description/serviceCenter required")
	}
	if r.Cost < 0 || r.Mileage < 0 {
		return ServiceRecord{}, fmt.Errorf("cost/mileage must be non-negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.vehicleExistsLocked(r.VehicleID) {
		return ServiceRecord{}, ErrVehicleNotFound
	}
	s.records = append(s.records, r)
	return r, nil
}

// UpdateServiceRecord 部分更新。改 vehicleId 时同样校验目标车辆存在。
// 先在副本上套用整个 patch，全部校验通过后才写回：
// 出错即整体不生效，不会留下改了一半的记录。
func (s *Store) UpdateServiceRecord(id string, patch RecordPatch) (ServiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		r := s.records[i]
		if patch.VehicleID != nil {
			vid := strings.TrimSpace(*patch.VehicleID)
			if !s.vehicleExistsLocked(vid) {
				return ServiceRecord{}, ErrVehicleNotFound
			}
			r.VehicleID = vid
		}
		if patch.Date != nil {
			r.Date = *patch.Date
		}
		if patch.ServiceType != nil {
			r.ServiceType = strings.TrimSpace(*patch.ServiceType)
		}
		if patch.Description != nil {
			r.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Cost != nil {
			if *patch.Cost < 0 {
				return ServiceRecord{}, fmt.Errorf("cost must be non-negative")
			}
			r.Cost = *patch.Cost
		}
		if patch.Mileage != nil {
			if *patch.Mileage < 0 {
				return ServiceRecord{}, fmt.Errorf("mileage must be non-negative")
			}
			r.Mileage = *patch.Mileage
		}
		if patch.ServiceCenter != nil {
			r.ServiceCenter = strings.TrimSpace(*patch.ServiceCenter)
		}
		if patch.Notes != nil {
			r.Notes = strings.TrimSpace(*patch.Notes)
		}
		s.records[i] = r
		return r, nil
	}
	return ServiceRecord{}, ErrRecordNotFound
}

// DeleteServiceRecord 删除单条记录，不影响车辆。
func (s *Store) DeleteServiceRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (s *Store) vehicleExistsLocked(id string) bool {
	for _, v := range s.vehicles {
		if v.ID == id {
			return true
		}
	}
	return false
}
