package device

import (
	"strings"

	"github.com/dsmelov/fitpro/internal/models"
)

// mobileTokens - подстроки User-Agent, по которым клиент считается мобильным.
// Планшеты классифицируются как mobile: для ролевой политики они равны телефонам.
var mobileTokens = []string{
	"mobile",
	"android",
	"iphone",
	"ipad",
	"ipod",
	"tablet",
	"opera mini",
	"windows phone",
}

// Classify определяет класс устройства по заголовку User-Agent
func Classify(userAgent string) models.DeviceType {
	ua := strings.ToLower(userAgent)

	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return models.DeviceMobile
		}
	}

	return models.DeviceDesktop
}

// allowTable - явная таблица {роль × тип устройства} -> разрешено.
// Мобильные устройства только для обычных пользователей,
// desktop только для специалистов и администраторов.
var allowTable = map[models.Role]map[models.DeviceType]bool{
	models.RoleUser: {
		models.DeviceMobile:  true,
		models.DeviceDesktop: false,
	},
	models.RoleProfessional: {
		models.DeviceMobile:  false,
		models.DeviceDesktop: true,
	},
	models.RoleAdmin: {
		models.DeviceMobile:  false,
		models.DeviceDesktop: true,
	},
}

// Allowed проверяет, разрешен ли вход с данным типом устройства для роли
func Allowed(role models.Role, deviceType models.DeviceType) bool {
	return allowTable[role][deviceType]
}
