package models

import "gorm.io/gorm"

// All lists every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&MainCategory{},
		&SubCategory{},
		&Difficulty{},
		&Product{},
		&ProductSubImage{},
		&Chapter{},
		&LectureVideo{},
		&Lecture{},
		&LectureContentDescription{},
		&LectureContentImageURL{},
		&LectureContent{},
		&Kit{},
		&KitSubImageURL{},
		&KitLike{},
		&ProductKit{},
		&Coupon{},
		&UserCoupon{},
		&RecentlyView{},
		&UserProduct{},
		&ProductLike{},
		&Draft{},
		&DraftImage{},
		&DraftChapter{},
		&DraftLecture{},
		&DraftContentImage{},
		&DraftContentDescription{},
		&DraftLectureContent{},
		&DraftKit{},
		&DraftKitImage{},
		&Community{},
		&CommunityComment{},
		&CommunityLike{},
		&OrderStatus{},
		&PaymentMethod{},
		&Order{},
		&LectureProgress{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

// SeedLookups inserts the static lookup tables the authoring and checkout
// flows resolve names against. Existing rows are left untouched.
func SeedLookups(db *gorm.DB) error {
	categories := []struct {
		main string
		subs []string
	}{
		{"크리에이티브", []string{"드로잉", "공예", "요리·음료", "사진·영상"}},
		{"커리어", []string{"데이터/개발", "디자인", "업무 생산성", "마케팅"}},
		{"머니", []string{"부업·창업", "투자·재테크"}},
	}
	for _, c := range categories {
		category := MainCategory{Name: c.main}
		if err := db.Where(MainCategory{Name: c.main}).FirstOrCreate(&category).Error; err != nil {
			return err
		}
		for _, name := range c.subs {
			sub := SubCategory{Name: name, MainCategoryID: &category.ID}
			if err := db.Where(SubCategory{Name: name}).FirstOrCreate(&sub).Error; err != nil {
				return err
			}
		}
	}

	for _, name := range []string{"입문자", "초급자", "중급자", "상급자"} {
		if err := db.Where(Difficulty{Name: name}).FirstOrCreate(&Difficulty{Name: name}).Error; err != nil {
			return err
		}
	}
	for _, status := range []string{OrderStatusPending, OrderStatusPaid} {
		if err := db.Where(OrderStatus{Status: status}).FirstOrCreate(&OrderStatus{Status: status}).Error; err != nil {
			return err
		}
	}
	for _, name := range []string{"card", "bank_transfer", "kakao_pay"} {
		if err := db.Where(PaymentMethod{Name: name}).FirstOrCreate(&PaymentMethod{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}
