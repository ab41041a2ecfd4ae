package database

import (
	"gorm.io/gorm"
)

// 专业水平枚举。
const (
	ExpertiseBeginner     = "beginner"
	ExpertiseIntermediate = "intermediate"
	ExpertiseExpert       = "expert"
)

// 订单状态枚举。
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// 咨询服务方式枚举。
const (
	ServiceTypeVideo = "video"
	ServiceTypePhone = "phone"
	ServiceTypeVisit = "visit"
)

// User 表示注册账号，含身份标志位与资料字段。
type User struct {
	gorm.Model
	Username       string `gorm:"uniqueIndex;size:80" json:"username"`
	Email          string `gorm:"uniqueIndex;size:120" json:"email"`
	PasswordHash   string `gorm:"size:255" json:"-"`
	Profession     string `gorm:"size:100" json:"profession"`
	ExpertiseLevel string `gorm:"size:20" json:"expertise_level"`
	Location       string `gorm:"size:200" json:"location"`
	ProfilePicture string `gorm:"size:512" json:"profile_picture,omitempty"`
	IsAdmin        bool   `gorm:"default:false" json:"is_admin"`
	IsConsultant   bool   `gorm:"default:false" json:"is_consultant"`

	BlogPosts    []BlogPost    `gorm:"foreignKey:UserID" json:"-"`
	ForumThreads []ForumThread `gorm:"foreignKey:UserID" json:"-"`
	ForumPosts   []ForumPost   `gorm:"foreignKey:UserID" json:"-"`
	Products     []Product     `gorm:"foreignKey:UserID" json:"-"`
	Orders       []Order       `gorm:"foreignKey:UserID" json:"-"`
}

// ForumCategory 表示论坛分类，ParentID 指向上级分类形成树。
// 数据库不强制无环，遍历侧需要自行防御。
type ForumCategory struct {
	gorm.Model
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ParentID    *uint  `gorm:"index" json:"parent_id,omitempty"`

	Threads []ForumThread `gorm:"foreignKey:CategoryID" json:"-"`
}

// ForumThread 表示主题帖，删除时级联删除全部回复。
type ForumThread struct {
	gorm.Model
	Title      string `gorm:"size:200;not null" json:"title"`
	CategoryID uint   `gorm:"index;not null" json:"category_id"`
	UserID     uint   `gorm:"index;not null" json:"user_id"`

	Author User        `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Posts  []ForumPost `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
}

// ForumPost 表示主题帖下的一条内容。
type ForumPost struct {
	gorm.Model
	Content  string `gorm:"type:text;not null" json:"content"`
	ThreadID uint   `gorm:"index;not null" json:"thread_id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`

	Author User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// BlogPost 表示博客文章。Excerpt 由正文前 150 字符派生。
// Approved 默认 false：新内容进入待审核状态，由管理员显式放行。
type BlogPost struct {
	gorm.Model
	Title    string `gorm:"size:200;not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Excerpt  string `gorm:"type:text" json:"excerpt"`
	Category string `gorm:"size:100" json:"category"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`
	ImageKey string `gorm:"size:512" json:"image_key,omitempty"`
	Approved bool   `gorm:"default:false" json:"approved"`

	Author User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// Product 表示集市商品。
type Product struct {
	gorm.Model
	Name          string  `gorm:"size:200;not null" json:"name"`
	Description   string  `gorm:"type:text" json:"description"`
	Price         float64 `gorm:"not null" json:"price"`
	Category      string  `gorm:"size:100" json:"category"`
	ImageKey      string  `gorm:"size:512" json:"image_key,omitempty"`
	StockQuantity int     `gorm:"default:1" json:"stock_quantity"`
	UserID        uint    `gorm:"index;not null" json:"user_id"`
	Approved      bool    `gorm:"default:false" json:"approved"`

	Seller User `gorm:"foreignKey:UserID" json:"seller,omitempty"`
}

// Consultant 表示顾问档案，每个账号至多一份。
type Consultant struct {
	gorm.Model
	UserID          uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Specialization  string  `gorm:"size:100" json:"specialization"`
	ExperienceYears int     `json:"experience_years"`
	HourlyRate      float64 `json:"hourly_rate"`
	Bio             string  `gorm:"type:text" json:"bio"`
	Approved        bool    `gorm:"default:false" json:"approved"`

	User    User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reviews []Review `gorm:"foreignKey:ConsultantID" json:"-"`
}

// Order 表示订单，删除时级联删除订单项。
type Order struct {
	gorm.Model
	UserID          uint    `gorm:"index;not null" json:"user_id"`
	TotalAmount     float64 `gorm:"not null" json:"total_amount"`
	Status          string  `gorm:"size:50;default:pending" json:"status"`
	ShippingAddress string  `gorm:"type:text" json:"shipping_address"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem 记录下单时刻的单价快照，不回查商品现价。
type OrderItem struct {
	gorm.Model
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
}

// Review 表示对顾问的评价，评分限定 1-5。
type Review struct {
	gorm.Model
	ConsultantID uint   `gorm:"index;not null" json:"consultant_id"`
	UserID       uint   `gorm:"index;not null" json:"user_id"`
	Rating       int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment      string `gorm:"type:text" json:"comment"`
	ServiceType  string `gorm:"size:50" json:"service_type"`

	Author User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// AllModels 返回 AutoMigrate 所需的全部模型。
func AllModels() []any {
	return []any{
		&User{},
		&ForumCategory{},
		&ForumThread{},
		&ForumPost{},
		&BlogPost{},
		&Product{},
		&Consultant{},
		&Order{},
		&OrderItem{},
		&Review{},
	}
}
