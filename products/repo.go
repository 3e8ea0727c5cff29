package products

type Repo interface {
	Upsert(product *Product) error
	Delete(id string) error
	Get(id string) (*Product, error)
	List(filter Filter) ([]*Product, error)
}
