package story

import (
	"storygpt-api/pkg/errors"
)

// Entity 可复用的命名角色/物件,name 在文档内唯一且大小写敏感
type Entity struct {
	Name string `json:"name"`
	// ReferenceImage base64 编码的参考图,有图时 Prompt 表达在图上追加的修改
	ReferenceImage string `json:"reference_image,omitempty"`
	// Prompt 无参考图时为完整外观描述
	Prompt string `json:"prompt,omitempty"`
}

// EntityPatch 实体的部分更新,nil 字段保持原值。
// Prompt 显式传空串表示清除,与缺省不同。
type EntityPatch struct {
	NewName        *string
	ReferenceImage *string
	Prompt         *string
}

// FindEntity 按名称精确查找,未命中返回 nil
func (d *Document) FindEntity(name string) *Entity {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}

// UpsertEntity 新增实体;同名已存在时按更新处理,提供的字段覆盖原值
func (d *Document) UpsertEntity(name string, referenceImage, prompt *string) {
	if existing := d.FindEntity(name); existing != nil {
		if referenceImage != nil {
			existing.ReferenceImage = *referenceImage
		}
		if prompt != nil {
			existing.Prompt = *prompt
		}
		return
	}
	ent := Entity{Name: name}
	if referenceImage != nil {
		ent.ReferenceImage = *referenceImage
	}
	if prompt != nil {
		ent.Prompt = *prompt
	}
	d.Entities = append(d.Entities, ent)
}

// UpdateEntity 按名称更新实体,支持改名,新名与其他实体冲突时报错
func (d *Document) UpdateEntity(name string, patch EntityPatch) error {
	ent := d.FindEntity(name)
	if ent == nil {
		return errors.Newf(errors.CodeEntityNotFound, "entity not found: %s", name)
	}
	if patch.NewName != nil && *patch.NewName != name {
		if d.FindEntity(*patch.NewName) != nil {
			return errors.Newf(errors.CodeEntityConflict, "entity already exists: %s", *patch.NewName)
		}
		ent.Name = *patch.NewName
	}
	if patch.ReferenceImage != nil {
		ent.ReferenceImage = *patch.ReferenceImage
	}
	if patch.Prompt != nil {
		ent.Prompt = *patch.Prompt
	}
	return nil
}

// DeleteEntity 按名称删除实体
func (d *Document) DeleteEntity(name string) error {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			d.Entities = append(d.Entities[:i], d.Entities[i+1:]...)
			return nil
		}
	}
	return errors.Newf(errors.CodeEntityNotFound, "entity not found: %s", name)
}

// EntityNames 返回当前注册表中的所有实体名,顺序与注册顺序一致
func (d *Document) EntityNames() []string {
	names := make([]string, 0, len(d.Entities))
	for i := range d.Entities {
		names = append(names, d.Entities[i].Name)
	}
	return names
}
