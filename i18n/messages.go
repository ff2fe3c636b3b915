package i18n

import "golang.org/x/text/language"

type Key string

const (
	SiteTitle       Key = "site_title"
	Language        Key = "language"
	SwitchToEnglish Key = "switch_to_english"
	SwitchToChinese Key = "switch_to_chinese"

	LoginTitle            Key = "login_title"
	LoginSubtitle         Key = "login_subtitle"
	InviteCode            Key = "invite_code"
	InviteCodePlaceholder Key = "invite_code_placeholder"
	VerifyAndEnter        Key = "verify_and_enter"
	Copyright             Key = "copyright"

	ErrorInvalid Key = "error_invalid"
	ErrorEmpty   Key = "error_empty"
	ErrorSystem  Key = "error_system"
	ErrorRate    Key = "error_rate"
	ErrorDefault Key = "error_default"

	MeetingRoom       Key = "meeting_room"
	MeetingInProgress Key = "meeting_in_progress"
	CopyLink          Key = "copy_link"
	Fullscreen        Key = "fullscreen"
	Exit              Key = "exit"
	Connecting        Key = "connecting"
	LinkCopied        Key = "link_copied"
	FullscreenError   Key = "fullscreen_error"
	Participants      Key = "participants"

	AdminTitle            Key = "admin_title"
	AdminLogin            Key = "admin_login"
	AdminPassword         Key = "admin_password"
	Login                 Key = "login"
	Logout                Key = "logout"
	PasswordError         Key = "password_error"
	VisitVerificationPage Key = "visit_verification_page"
	GenerateNewCode       Key = "generate_new_code"
	Notes                 Key = "notes"
	Optional              Key = "optional"
	ExpiryTime            Key = "expiry_time"
	GenerateCode          Key = "generate_code"
	CodeList              Key = "code_list"
	InviteCodeCol         Key = "invite_code_col"
	StatusCol             Key = "status_col"
	CreatedTime           Key = "created_time"
	ExpiryTimeCol         Key = "expiry_time_col"
	UsedTime              Key = "used_time"
	NotesCol              Key = "notes_col"
	Actions               Key = "actions"
	Active                Key = "active"
	Inactive              Key = "inactive"
	NeverExpires          Key = "never_expires"
	NotUsed               Key = "not_used"
	Enable                Key = "enable"
	Disable               Key = "disable"
	Delete                Key = "delete"
)

// ErrorKey maps the ?error= value of the entry page to its message
func ErrorKey(code string) Key {
	switch code {
	case "invalid":
		return ErrorInvalid
	case "empty":
		return ErrorEmpty
	case "system":
		return ErrorSystem
	case "rate":
		return ErrorRate
	}
	return ErrorDefault
}

var tables = map[language.Tag]map[Key]string{
	Chinese: {
		SiteTitle:       "在线会议邀请系统",
		Language:        "语言",
		SwitchToEnglish: "English",
		SwitchToChinese: "中文",

		LoginTitle:            "在线会议",
		LoginSubtitle:         "请输入邀请码以访问会议系统",
		InviteCode:            "邀请码",
		InviteCodePlaceholder: "请输入邀请码",
		VerifyAndEnter:        "验证并进入",
		Copyright:             "© 2025 在线会议邀请系统",

		ErrorInvalid: "邀请码无效或已过期，请检查后重试",
		ErrorEmpty:   "请输入邀请码",
		ErrorSystem:  "系统错误，请稍后重试或联系管理员",
		ErrorRate:    "尝试次数过多，请稍后再试",
		ErrorDefault: "验证失败，请重试",

		MeetingRoom:       "会议室",
		MeetingInProgress: "会议进行中",
		CopyLink:          "复制链接",
		Fullscreen:        "全屏",
		Exit:              "退出",
		Connecting:        "正在连接会议室...",
		LinkCopied:        "会议链接已复制到剪贴板",
		FullscreenError:   "无法进入全屏模式",
		Participants:      "在线人数",

		AdminTitle:            "邀请码管理系统",
		AdminLogin:            "管理员登录",
		AdminPassword:         "管理员密码",
		Login:                 "登录",
		Logout:                "退出",
		PasswordError:         "密码错误",
		VisitVerificationPage: "访问验证页面",
		GenerateNewCode:       "生成新邀请码",
		Notes:                 "备注信息",
		Optional:              "选填",
		ExpiryTime:            "过期时间",
		GenerateCode:          "生成邀请码",
		CodeList:              "邀请码列表",
		InviteCodeCol:         "邀请码",
		StatusCol:             "状态",
		CreatedTime:           "创建时间",
		ExpiryTimeCol:         "过期时间",
		UsedTime:              "使用时间",
		NotesCol:              "备注",
		Actions:               "操作",
		Active:                "有效",
		Inactive:              "无效",
		NeverExpires:          "永不过期",
		NotUsed:               "未使用",
		Enable:                "启用",
		Disable:               "禁用",
		Delete:                "删除",
	},
	English: {
		SiteTitle:       "Online Meeting Invitation System",
		Language:        "Language",
		SwitchToEnglish: "English",
		SwitchToChinese: "中文",

		LoginTitle:            "Online Meeting",
		LoginSubtitle:         "Please enter invitation code to access the meeting system",
		InviteCode:            "Invitation Code",
		InviteCodePlaceholder: "Enter invitation code",
		VerifyAndEnter:        "Verify & Enter",
		Copyright:             "© 2025 Online Meeting Invitation System",

		ErrorInvalid: "Invalid or expired invitation code, please check and try again",
		ErrorEmpty:   "Please enter invitation code",
		ErrorSystem:  "System error, please try again later or contact administrator",
		ErrorRate:    "Too many attempts, please try again later",
		ErrorDefault: "Verification failed, please try again",

		MeetingRoom:       "Meeting Room",
		MeetingInProgress: "Meeting in Progress",
		CopyLink:          "Copy Link",
		Fullscreen:        "Fullscreen",
		Exit:              "Exit",
		Connecting:        "Connecting to meeting room...",
		LinkCopied:        "Meeting link copied to clipboard",
		FullscreenError:   "Unable to enter fullscreen mode",
		Participants:      "Participants",

		AdminTitle:            "Invitation Code Management System",
		AdminLogin:            "Administrator Login",
		AdminPassword:         "Administrator Password",
		Login:                 "Login",
		Logout:                "Logout",
		PasswordError:         "Incorrect password",
		VisitVerificationPage: "Visit Verification Page",
		GenerateNewCode:       "Generate New Invitation Code",
		Notes:                 "Notes",
		Optional:              "Optional",
		ExpiryTime:            "Expiry Time",
		GenerateCode:          "Generate Code",
		CodeList:              "Invitation Code List",
		InviteCodeCol:         "Invitation Code",
		StatusCol:             "Status",
		CreatedTime:           "Created Time",
		ExpiryTimeCol:         "Expiry Time",
		UsedTime:              "Used Time",
		NotesCol:              "Notes",
		Actions:               "Actions",
		Active:                "Active",
		Inactive:              "Inactive",
		NeverExpires:          "Never expires",
		NotUsed:               "Not used",
		Enable:                "Enable",
		Disable:               "Disable",
		Delete:                "Delete",
	},
}
