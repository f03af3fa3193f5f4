package garage

import "time"

// 示例数据：登录/注册成功后装载，登出时随会话一起丢弃。

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func intPtr(n int) *int { return &n }

func sampleVehicles() []Vehicle {
	return []Vehicle{
		{
			ID:                 "vehicle-1",
			Make:               "Toyota",
			Model:              "Camry",
			Year:               2018,
			LicensePlate:       "ABC-1234",
			VIN:                "4T1BF1FK5HU123456",
			Color:              "Silver",
			NextServiceDate:    datePtr(2025, time.June, 15),
			NextServiceMileage: intPtr(60000),
			CurrentMileage:     intPtr(52345),
		},
		{
			ID:                 "vehicle-2",
			Make:               "Honda",
			Model:              "CR-V",
			Year:               2020,
			LicensePlate:       "XYZ-7890",
			VIN:                "2HKRW1H53LH123456",
			Color:              "Blue",
			NextServiceDate:    datePtr(2025, time.July, 10),
			NextServiceMileage: intPtr(30000),
			CurrentMileage:     intPtr(26500),
		},
		{
			ID:                 "vehicle-3",
			Make:               "Ford",
			Model:              "F-150",
			Year:               2019,
			LicensePlate:       "DEF-4567",
			VIN:                "1FTEW1EP0KFC12345",
			Color:              "Black",
			NextServiceDate:    datePtr(2025, time.May, 20),
			NextServiceMileage: intPtr(45000),
			CurrentMileage:     intPtr(42800),
		},
	}
}

func sampleServiceRecords() []ServiceRecord {
	return []ServiceRecord{
		{
			ID:            "service-101",
			VehicleID:     "vehicle-1",
			Date:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			ServiceType:   "Oil Change",
			Description:   "Regular oil change with synthetic oil",
			Cost:          65.99,
			Mileage:       45000,
			ServiceCenter: "Express Lube",
		},
		{
			ID:            "service-102",
			VehicleID:     "vehicle-1",
			Date:          time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC),
			ServiceType:   "Brake Service",
			Description:   "Front brake pad replacement",
			Cost:          260.50,
			Mileage:       40000,
			ServiceCenter: "City Auto Repair",
		},
		{
			ID:            "service-103",
			VehicleID:     "vehicle-2",
			Date:          time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC),
			ServiceType:   "Tire Rotation",
			Description:   "Regular tire rotation",
			Cost:          29.99,
			Mileage:       22000,
			ServiceCenter: "Discount Tire",
		},
	}
}

// seedLocked 重置集合为示例数据。调用方必须已持有写锁。
func (s *Store) seedLocked() {
	s.vehicles = sampleVehicles()
	s.records = sampleServiceRecords()
}
