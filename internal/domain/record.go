package domain

// CountryRecord 是主 pass 输入列表中的一条记录。
// 源数据可能带有更多字段；这里只消费 name。
type CountryRecord struct {
	Name string `json:"name"`
}
